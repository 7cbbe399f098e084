package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/calendar"
	"github.com/salahtrack/salahtrack/internal/display"
	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
)

var flagWeekOffset int

func newWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show this week's completion grid",
		Long:  "Display a Sunday-to-Saturday grid of completion marks.\nUse --offset to look at earlier or later weeks.",
		RunE:  runWeek,
	}
	cmd.Flags().IntVar(&flagWeekOffset, "offset", 0, "Weeks to shift from the current one (negative = past)")
	return cmd
}

func runWeek(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()
	now := time.Now()

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	nav := calendar.New(st)
	target := now.AddDate(0, 0, 7*flagWeekOffset)
	w, err := nav.Select(ctx, target)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrAuthRequired):
			return fmt.Errorf("sign in with `salahtrack login` to see your records")
		case errors.Is(err, records.ErrNetwork):
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: records service unreachable, showing cached state")
		default:
			return err
		}
	}

	if FlagJSON {
		return printWeekJSON(st, w)
	}

	printWeekGrid(st, w, now)
	return nil
}

// printWeekGrid renders the completion grid: one row per prayer, one
// column per day.
func printWeekGrid(st dayReader, w calendar.Window, now time.Time) {
	headers := make([]string, 0, 8)
	headers = append(headers, "Prayer")
	today := prayer.DateOf(now)
	todayCol := -1
	for i, d := range w.Days {
		headers = append(headers, d.Format("Mon 02"))
		if prayer.DateOf(d) == today {
			todayCol = i + 1
		}
	}

	tbl := display.NewTable(headers)
	if todayCol > 0 {
		tbl.SetHighlightCol(todayCol)
	}

	total, done := 0, 0
	for _, name := range prayer.Names {
		row := make([]string, 0, 8)
		row = append(row, string(name))
		for _, d := range w.Days {
			date := prayer.DateOf(d)
			if !d.After(now) {
				total++
			}
			if st.Completed(date, name) {
				done++
				row = append(row, display.Done())
			} else if d.After(now) {
				row = append(row, " ")
			} else {
				row = append(row, display.Missed())
			}
		}
		tbl.AddRow(row)
	}

	fmt.Println()
	fmt.Printf("  %s\n\n", display.Bold(fmt.Sprintf("Week of %s", w.Start())))
	fmt.Print(tbl.Render())
	fmt.Println()
	fmt.Printf("  %s\n\n", display.Dim(fmt.Sprintf("%d of %d logged", done, total)))
}

// dayReader is the slice of the store the grid needs.
type dayReader interface {
	Completed(date string, name prayer.Name) bool
}

type weekJSON struct {
	Start string              `json:"start"`
	End   string              `json:"end"`
	Days  map[string][]string `json:"days"` // date -> completed prayers
}

func printWeekJSON(st dayReader, w calendar.Window) error {
	out := weekJSON{
		Start: w.Start(),
		End:   w.End(),
		Days:  make(map[string][]string, 7),
	}
	for _, d := range w.Days {
		date := prayer.DateOf(d)
		completed := []string{}
		for _, name := range prayer.Names {
			if st.Completed(date, name) {
				completed = append(completed, string(name))
			}
		}
		out.Days[date] = completed
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
