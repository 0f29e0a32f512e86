package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"momentum/internal/backend"
	"momentum/internal/core"
	"momentum/internal/finance"
	"momentum/internal/mailparse"
	"momentum/internal/services"
	"momentum/internal/sheets"
	"momentum/internal/streak"
)

func (c *ctl) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file.eml>",
		Short: "Parse a saved bank alert email",
		Long:  `Run a saved email through the bank parsers and the merchant categorizer. Use "-" to read from stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			e, err := mailparse.ReadEmail(in)
			if err != nil {
				return err
			}
			preview := services.NewIngestService(nil, nil, nil,
				mailparse.DefaultRegistry(), mailparse.DefaultCategorizer(), 0).Preview(e)
			return printJSON(cmd.OutOrStdout(), preview)
		},
	}
}

type streakOutput struct {
	HabitID int64      `json:"habit_id"`
	Name    string     `json:"name"`
	AsOf    civil.Date `json:"as_of"`
	streak.Stats
}

func (c *ctl) streakCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "streak <habit-id>",
		Short: "Show streak statistics for a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid habit id %q", args[0])
			}
			day := civil.DateOf(time.Now())
			if asOf != "" {
				if day, err = civil.ParseDate(asOf); err != nil {
					return fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", asOf)
				}
			}

			app, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			h, err := app.Habits.GetHabit(cmd.Context(), id)
			if err != nil {
				return err
			}
			stats, err := app.Habits.Stats(cmd.Context(), id, day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), streakOutput{HabitID: id, Name: h.Name, AsOf: day, Stats: stats})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate the streak on this day (YYYY-MM-DD, default today)")
	return cmd
}

type summaryOutput struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	finance.Summary
}

// monthFlag parses a YYYY-MM flag value, defaulting to the current month.
func monthFlag(month string) (time.Time, error) {
	if month == "" {
		return time.Now(), nil
	}
	m, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --month %q: want YYYY-MM", month)
	}
	return m, nil
}

func (c *ctl) summaryCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize one month of transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}

			app, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Transactions.Summary(cmd.Context(), m.Year(), int(m.Month()))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summaryOutput{Year: m.Year(), Month: int(m.Month()), Summary: s})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to summarize (YYYY-MM, default current month)")
	return cmd
}

func (c *ctl) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run one mailbox ingestion pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			if !app.Ingest.HasSource() {
				return errors.New("no mailbox configured: set GMAIL_OAUTH_CLIENT_FILE and run oauth-init")
			}
			run, err := app.Ingest.Run(cmd.Context())
			if run.ID != "" {
				if perr := printJSON(cmd.OutOrStdout(), run); perr != nil {
					return perr
				}
			}
			return err
		},
	}
}

func (c *ctl) exportedCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "exported",
		Short: "List transactions already exported to the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			exporter, kind, err := backend.NewExporter(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			lister, ok := exporter.(sheets.TransactionLister)
			if !ok {
				return fmt.Errorf("%s exporter cannot list rows", kind)
			}
			txs, err := lister.ListTransactions(cmd.Context(), m.Year(), int(m.Month()))
			if err != nil {
				return err
			}
			if txs == nil {
				txs = []core.Transaction{}
			}
			c.logger.Info("Listed exported transactions", "exporter", kind.String(), "count", len(txs))
			return printJSON(cmd.OutOrStdout(), txs)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to list (YYYY-MM, default current month)")
	return cmd
}
