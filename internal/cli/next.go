package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/prayer"
)

var flagNextFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer window with countdown",
		Long:  "Display the next upcoming prayer window with a countdown.\nCompact output suited to status bars (tmux, i3blocks).",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagNextFormat, "format", prayer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	layout := goTimeFormat(cfg)
	c := newCache(cfg)
	ctx := cmd.Context()
	now := time.Now()

	loc, err := resolveLocation(ctx, cfg, c)
	if err != nil {
		return err
	}

	timings, err := resolveTimings(ctx, cfg, c, loc, now)
	if err != nil {
		return err
	}

	next := prayer.NextWindow(timings, now)

	// All of today's windows have opened; the next one is tomorrow's
	// Fajr.
	if next == nil {
		tomorrow := now.AddDate(0, 0, 1)
		tTimings, fetchErr := resolveTimings(ctx, cfg, c, loc, tomorrow)
		if fetchErr != nil {
			// Show the last window with a done indicator rather than
			// crashing the status bar.
			if n := len(timings.Windows); n > 0 {
				fmt.Printf("%s --:--", timings.Windows[n-1].Name)
				return nil
			}
			return fmt.Errorf("failed to fetch tomorrow's times: %w", fetchErr)
		}
		// FormatNext rolls a past start clock to tomorrow's occurrence,
		// which is exactly tomorrow's Fajr here.
		if len(tTimings.Windows) > 0 {
			w := tTimings.Windows[0]
			next = &w
		}
	}

	if next == nil {
		return fmt.Errorf("could not determine next prayer")
	}

	fmt.Print(prayer.FormatNext(*next, now, flagNextFormat, layout))
	return nil
}
