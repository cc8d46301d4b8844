package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/rebalance/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded planning runs",
	Long: `Query planning runs recorded in the SQLite journal.

Subcommands:
  list    - List recent runs
  day     - List runs made on a specific day
  show    - Show the trades of one run
  org     - Export one run as an Org-mode entry
  csv     - Export the trades of one run as CSV
  delete  - Delete one run

Examples:
  rebalance journal list --journal plans.db
  rebalance journal day 2026-03-31
  rebalance journal org 01JQ7Z0000ABCDEFGHJKMNPQRS`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd, args); err != nil {
			return err
		}
		if journalPath == "" {
			return fmt.Errorf("no journal configured (set --journal or REBALANCE_JOURNAL)")
		}
		return nil
	},
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List runs made on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the trades of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalOrgCmd = &cobra.Command{
	Use:   "org <run-id>",
	Short: "Export one run as Org-mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrg,
}

var journalCSVCmd = &cobra.Command{
	Use:   "csv <run-id>",
	Short: "Export the trades of one run as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalCSV,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete one run and its trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

var journalLimit int

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalDayCmd, journalShowCmd, journalOrgCmd, journalCSVCmd, journalDeleteCmd)

	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of runs (0 for all)")
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func runJournalList(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	return writeRuns(cmd.OutOrStdout(), runs)
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	runs, err := j.ListRunsBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	return writeRuns(cmd.OutOrStdout(), runs)
}

func writeRuns(out io.Writer, runs []journal.Run) error {
	if runs == nil {
		runs = []journal.Run{}
	}
	return render(out, runs, func(w io.Writer) error {
		if len(runs) == 0 {
			_, err := fmt.Fprintln(w, "No runs recorded.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tCREATED\tMODE\tTOTAL\tTRADES\tBUYS\tSELLS\tVIOLATIONS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%d\n",
				r.RunID, r.Created.Local().Format("2006-01-02 15:04"), r.Mode,
				r.TotalValue.StringFixed(0), r.Trades, r.Buys.StringFixed(2), r.Sells.StringFixed(2), r.Violations)
		}
		return tw.Flush()
	})
}

type runDetail struct {
	Run    journal.Run           `json:"run" yaml:"run"`
	Trades []journal.TradeRecord `json:"trades" yaml:"trades"`
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	run, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	trades, err := j.ListTradesByRunID(cmd.Context(), run.RunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	return render(cmd.OutOrStdout(), runDetail{Run: run, Trades: trades}, func(w io.Writer) error {
		fmt.Fprintf(w, "Run %s (%s) %s\n", run.RunID, run.Mode, run.Created.Local().Format(time.RFC1123))
		fmt.Fprintf(w, "Total $%s, buys $%s, sells $%s\n\n",
			run.TotalValue.StringFixed(2), run.Buys.StringFixed(2), run.Sells.StringFixed(2))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tACCOUNT\tACTION\tTICKER\tAMOUNT\tREASON")
		for _, t := range trades {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				t.Seq, t.AccountID, t.Direction, t.Ticker, t.Amount.StringFixed(2), t.Reason)
		}
		return tw.Flush()
	})
}

func runJournalOrg(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := j.ExportRunOrg(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), s)
	return err
}

func runJournalCSV(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if _, err := j.GetRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	trades, err := j.ListTradesByRunID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	return journal.WriteTradesCSV(cmd.OutOrStdout(), trades)
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.DeleteRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
	return err
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
