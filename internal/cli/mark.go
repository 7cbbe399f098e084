package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
	"github.com/salahtrack/salahtrack/internal/store"
)

var flagMarkDate string

func newMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark <prayer>",
		Short: "Mark a prayer as completed",
		Long:  "Mark a prayer as completed for today or, with --date, for a past day.\n\nValid prayer names: Fajr, Dhuhr, Asr, Maghrib, Isha",
		Args:  cobra.ExactArgs(1),
		RunE:  runMark,
	}
	cmd.Flags().StringVar(&flagMarkDate, "date", "", "Date to mark (YYYY-MM-DD, default today)")
	return cmd
}

func newUnmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unmark <prayer>",
		Short: "Clear a prayer's completion mark",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnmark,
	}
	cmd.Flags().StringVar(&flagMarkDate, "date", "", "Date to unmark (YYYY-MM-DD, default today)")
	return cmd
}

func newToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <prayer>",
		Short: "Toggle a prayer's completion mark",
		Args:  cobra.ExactArgs(1),
		RunE:  runToggle,
	}
	cmd.Flags().StringVar(&flagMarkDate, "date", "", "Date to toggle (YYYY-MM-DD, default today)")
	return cmd
}

func runMark(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()
	now := time.Now()

	name, date, err := markArgs(args[0], now)
	if err != nil {
		return err
	}

	c := newCache(cfg)
	loc, err := resolveLocation(ctx, cfg, c)
	if err != nil {
		return err
	}

	// Marking today is gated on the window actually being open; past
	// days are logged freely.
	if date == prayer.DateOf(now) {
		timings, terr := resolveTimings(ctx, cfg, c, loc, now)
		if terr != nil {
			return terr
		}
		w := timings.Window(name)
		if w == nil {
			return fmt.Errorf("no window for %s today", name)
		}
		if !prayer.Markable(*w, now, nil) {
			return fmt.Errorf("%s window (%s - %s) is not open right now", name, w.Start, w.End)
		}
	}

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	if _, err := st.MarkCompleted(ctx, date, name, loc.Coordinates()); err != nil {
		return markError(err, name, date)
	}

	fmt.Printf("Marked %s completed for %s\n", name, date)
	return nil
}

func runUnmark(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()

	name, date, err := markArgs(args[0], time.Now())
	if err != nil {
		return err
	}

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	if _, err := st.Unmark(ctx, date, name); err != nil {
		return markError(err, name, date)
	}

	fmt.Printf("Cleared %s for %s\n", name, date)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()
	now := time.Now()

	name, date, err := markArgs(args[0], now)
	if err != nil {
		return err
	}

	c := newCache(cfg)
	loc, err := resolveLocation(ctx, cfg, c)
	if err != nil {
		return err
	}

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	// Fetch current state so the toggle flips the server's view, not a
	// stale guess.
	if _, err := st.LoadRange(ctx, date, date); err != nil {
		return markError(err, name, date)
	}
	completed := st.Completed(date, name)

	rec, err := st.Toggle(ctx, date, name, completed, loc.Coordinates())
	if err != nil {
		return markError(err, name, date)
	}

	if rec != nil && rec.Completed {
		fmt.Printf("Marked %s completed for %s\n", name, date)
	} else {
		fmt.Printf("Cleared %s for %s\n", name, date)
	}
	return nil
}

// markArgs validates the prayer name argument and the --date flag.
func markArgs(arg string, now time.Time) (prayer.Name, string, error) {
	name, err := prayer.ParseName(arg)
	if err != nil {
		return "", "", err
	}

	date := flagMarkDate
	if date == "" {
		date = prayer.DateOf(now)
	} else if _, err := prayer.ParseDate(date); err != nil {
		return "", "", fmt.Errorf("invalid --date %q: %w", flagMarkDate, err)
	}
	return name, date, nil
}

// markError translates store and record-service sentinels into actionable
// messages.
func markError(err error, name prayer.Name, date string) error {
	switch {
	case errors.Is(err, records.ErrAuthRequired):
		return fmt.Errorf("sign in with `salahtrack login` to track completion")
	case errors.Is(err, store.ErrFutureDate):
		return fmt.Errorf("cannot log %s for %s: future dates are not recordable", name, date)
	case errors.Is(err, store.ErrConcurrentMutation):
		return fmt.Errorf("another update for %s on %s is still in flight, try again", name, date)
	case errors.Is(err, records.ErrNetwork):
		return fmt.Errorf("records service unreachable: %w", err)
	default:
		return err
	}
}
