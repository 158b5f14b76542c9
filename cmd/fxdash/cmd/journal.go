package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fxdash/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display closed trades from the SQLite journal.

Subcommands:
  trade  - Get details of a specific trade by ID
  today  - List trades closed today
  day    - List trades closed on a specific day
  equity - List equity snapshots taken on a day

Examples:
  fxdash journal trade <trade-id>
  fxdash journal today
  fxdash journal day 2024-01-15
  fxdash journal equity 2024-01-15`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listTradesOn(cmd, time.Now().In(time.Local).Format("2006-01-02"))
	},
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listTradesOn(cmd, args[0])
	},
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity [YYYY-MM-DD]",
	Short: "List equity snapshots taken on a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./fxdash.sqlite", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer closeJournal(j)

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func listTradesOn(cmd *cobra.Command, day string) error {
	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer closeJournal(j)

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	day := time.Now().In(time.Local).Format("2006-01-02")
	if len(args) == 1 {
		day = args[0]
	}
	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer closeJournal(j)

	snaps, err := j.ListEquityBetween(start, end)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No equity snapshots.")
		return nil
	}
	fmt.Fprintf(out, "%-20s %12s %10s %5s %8s\n", "TIME", "BALANCE", "P/L", "OPEN", "WIN RATE")
	for _, e := range snaps {
		fmt.Fprintf(out, "%-20s %12.2f %+10.2f %5d %7d%%\n",
			e.Time.In(time.Local).Format("2006-01-02 15:04:05"), e.Balance, e.TotalProfit, e.OpenPositions, e.WinRate)
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
