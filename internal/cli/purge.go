package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
)

var flagPurgeYes bool

func newPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge <date>",
		Short: "Delete all records for a day",
		Long:  "Permanently delete every completion record for the given date (YYYY-MM-DD).",
		Args:  cobra.ExactArgs(1),
		RunE:  runPurge,
	}
	cmd.Flags().BoolVarP(&flagPurgeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()

	date := args[0]
	if _, err := prayer.ParseDate(date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	if !flagPurgeYes {
		fmt.Fprintf(cmd.OutOrStdout(), "Delete all records for %s? [y/N] ", date)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	_, client, err := openStore(cfg)
	if err != nil {
		return err
	}

	if err := client.Purge(ctx, date); err != nil {
		switch {
		case errors.Is(err, records.ErrAuthRequired):
			return fmt.Errorf("sign in with `salahtrack login` first")
		case errors.Is(err, records.ErrNotFound):
			fmt.Fprintf(cmd.OutOrStdout(), "No records for %s.\n", date)
			return nil
		default:
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted records for %s.\n", date)
	return nil
}
