package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/config"
	"github.com/salahtrack/salahtrack/internal/display"
	"github.com/salahtrack/salahtrack/internal/geo"
)

var flagSearchSave int

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search for a city",
		Long:  "Look up cities by name. Use --save N to store result number N\nas your configured location.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().IntVar(&flagSearchSave, "save", 0, "Save result number N (1-based) to config")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.Join(args, " ")

	client := geo.NewClient("")
	places, err := client.Autocomplete(ctx, text)
	if err != nil {
		return fmt.Errorf("city lookup failed: %w", err)
	}
	if len(places) == 0 {
		fmt.Printf("No cities matched %q.\n", text)
		return nil
	}

	fmt.Println()
	tbl := display.NewTable([]string{"#", "City", "Coordinates"})
	for i, p := range places {
		tbl.AddRow([]string{
			fmt.Sprintf("%d", i+1),
			p.Label(),
			fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lon),
		})
	}
	fmt.Print(tbl.Render())
	fmt.Println()

	if flagSearchSave == 0 {
		return nil
	}
	if flagSearchSave < 1 || flagSearchSave > len(places) {
		return fmt.Errorf("--save %d out of range (1-%d)", flagSearchSave, len(places))
	}

	chosen := places[flagSearchSave-1]
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.City = chosen.City
	cfg.Country = chosen.Country
	cfg.Latitude = chosen.Lat
	cfg.Longitude = chosen.Lon
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("Saved %s as your location.\n", chosen.Label())
	return nil
}
