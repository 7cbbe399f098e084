package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/config"
	"github.com/salahtrack/salahtrack/internal/display"
	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
)

func runToday(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	layout := goTimeFormat(cfg)
	c := newCache(cfg)
	ctx := cmd.Context()
	now := time.Now()
	today := prayer.DateOf(now)

	loc, err := resolveLocation(ctx, cfg, c)
	if err != nil {
		return err
	}

	timings, err := resolveTimings(ctx, cfg, c, loc, now)
	if err != nil {
		return err
	}

	// Completion state is optional: an unauthenticated or offline session
	// still sees the schedule.
	day, recordsNote := loadDay(ctx, cfg, today)

	current := prayer.CurrentWindow(timings, now)
	next := prayer.NextWindow(timings, now)

	if FlagJSON {
		return printTodayJSON(timings, day, current, next, now, layout)
	}

	printTodayRich(timings, day, current, next, now, layout, recordsNote)
	return nil
}

// loadDay fetches today's completion records. Failures degrade to an
// empty day plus a human-readable note.
func loadDay(ctx context.Context, cfg *config.Config, date string) (map[prayer.Name]prayer.Record, string) {
	st, _, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Sprintf("records unavailable: %v", err)
	}

	cells, err := st.LoadRange(ctx, date, date)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrAuthRequired):
			return nil, "sign in with `salahtrack login` to track completion"
		case errors.Is(err, records.ErrNetwork):
			return nil, "records service unreachable; completion marks hidden"
		default:
			return nil, fmt.Sprintf("records unavailable: %v", err)
		}
	}
	return cells[date], ""
}

// printTodayRich renders the colored terminal output for today's windows.
func printTodayRich(timings *prayer.DailyTimings, day map[prayer.Name]prayer.Record, current, next *prayer.Window, now time.Time, layout, note string) {
	fmt.Println()
	fmt.Printf("  %s\n", display.Bold("Prayers for "+timings.Date))
	fmt.Println()

	if timings.Place != "" {
		fmt.Printf("  %s\n", timings.Place)
	}
	if timings.Fallback {
		fmt.Printf("  %s\n", display.Yellow("using default schedule (provider unreachable)"))
	}
	fmt.Println()

	for _, w := range timings.Windows {
		mark := display.Missed()
		if rec, ok := day[w.Name]; ok && rec.Completed {
			mark = display.Done()
		}

		line := fmt.Sprintf("  %s %-8s %s - %s",
			mark, w.Name, formatClock(w.Start, layout), formatClock(w.End, layout))

		switch {
		case current != nil && w.Name == current.Name:
			fmt.Println(display.Accent(line) + display.Accent("  <- now"))
		case next != nil && w.Name == next.Name:
			fmt.Println(line + display.Dim("  next"))
		default:
			fmt.Println(line)
		}
	}

	fmt.Println()
	if note != "" {
		fmt.Printf("  %s\n\n", display.Dim(note))
	}
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Date     string           `json:"date"`
	Place    string           `json:"place,omitempty"`
	Fallback bool             `json:"fallback,omitempty"`
	Windows  []todayJSONEntry `json:"windows"`
	Current  string           `json:"current,omitempty"`
	Next     string           `json:"next,omitempty"`
}

type todayJSONEntry struct {
	Prayer    string `json:"prayer"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Completed bool   `json:"completed"`
}

func printTodayJSON(timings *prayer.DailyTimings, day map[prayer.Name]prayer.Record, current, next *prayer.Window, now time.Time, layout string) error {
	out := todayJSON{
		Date:     timings.Date,
		Place:    timings.Place,
		Fallback: timings.Fallback,
	}
	for _, w := range timings.Windows {
		rec, ok := day[w.Name]
		out.Windows = append(out.Windows, todayJSONEntry{
			Prayer:    string(w.Name),
			Start:     formatClock(w.Start, layout),
			End:       formatClock(w.End, layout),
			Completed: ok && rec.Completed,
		})
	}
	if current != nil {
		out.Current = string(current.Name)
	}
	if next != nil {
		out.Next = string(next.Name)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
