package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/display"
	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
)

var (
	flagStatsMonth int
	flagStatsYear  int
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show monthly completion statistics",
		RunE:  runStats,
	}
	cmd.Flags().IntVar(&flagStatsMonth, "month", 0, "Month (1-12, default current)")
	cmd.Flags().IntVar(&flagStatsYear, "year", 0, "Year (default current)")
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()
	now := time.Now()

	month := flagStatsMonth
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid --month %d: must be 1-12", month)
	}
	year := flagStatsYear
	if year == 0 {
		year = now.Year()
	}

	_, client, err := openStore(cfg)
	if err != nil {
		return err
	}

	stats, err := client.GetStats(ctx, month, year)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrAuthRequired):
			return fmt.Errorf("sign in with `salahtrack login` to see your statistics")
		case errors.Is(err, records.ErrNetwork):
			return fmt.Errorf("records service unreachable: %w", err)
		default:
			return err
		}
	}

	if FlagJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println()
	fmt.Printf("  %s\n\n", display.Boldf("Completion for %04d-%02d", stats.Year, stats.Month))

	tbl := display.NewTable([]string{"Prayer", "Logged"})
	for _, name := range prayer.Names {
		tbl.AddRow([]string{string(name), fmt.Sprintf("%d", stats.PerPrayer[name])})
	}
	fmt.Print(tbl.Render())
	fmt.Println()

	pct := 0.0
	if stats.Total > 0 {
		pct = 100 * float64(stats.Completed) / float64(stats.Total)
	}
	fmt.Printf("  %s\n\n", display.Dim(fmt.Sprintf("%d of %d logged (%.0f%%)", stats.Completed, stats.Total, pct)))
	return nil
}
