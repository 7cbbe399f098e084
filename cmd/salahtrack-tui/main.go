package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/salahtrack/salahtrack/internal/calendar"
	"github.com/salahtrack/salahtrack/internal/config"
	"github.com/salahtrack/salahtrack/internal/geo"
	"github.com/salahtrack/salahtrack/internal/records"
	"github.com/salahtrack/salahtrack/internal/search"
	"github.com/salahtrack/salahtrack/internal/session"
	"github.com/salahtrack/salahtrack/internal/store"
	"github.com/salahtrack/salahtrack/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

const defaultRecordsURL = "https://records.salahtrack.app"

func main() {
	// The alternate screen owns the terminal; keep log noise out of it.
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("salahtrack-tui %s\n", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	sess, err := session.Load(session.Path(dir))
	if err != nil {
		return err
	}

	url := cfg.RecordsURL
	if url == "" {
		url = defaultRecordsURL
	}
	client := records.NewClient(url, sess)
	st := store.New(client)
	nav := calendar.New(st)

	geoClient := geo.NewClient("")
	events := make(chan search.Snapshot[geo.Place], 16)
	searcher := search.New(
		geoClient.Autocomplete,
		search.WithNotify[geo.Place](func(s search.Snapshot[geo.Place]) { events <- s }),
	)

	model := tui.New(st, nav, searcher, events)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
