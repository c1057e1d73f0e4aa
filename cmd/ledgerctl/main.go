// ledgerctl runs report generation and history export from the command line,
// without the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
	"github.com/zhenghao/ledger-reporter/internal/history"
	"github.com/zhenghao/ledger-reporter/internal/ledger"
	"github.com/zhenghao/ledger-reporter/internal/report"
	"github.com/zhenghao/ledger-reporter/internal/source"
	"github.com/zhenghao/ledger-reporter/pkg/database"
	"github.com/zhenghao/ledger-reporter/pkg/utils"
)

var (
	flagLogLevel string

	flagDate        string
	flagLoans       string
	flagFactoring   string
	flagRefactoring string
	flagLedger      string
	flagOutputDir   string
	flagStrategy    string
	flagLoanSheet   string
	flagRepaySheet  string

	flagDBPath string
	flagOut    string
	flagLimit  int
)

func main() {
	_ = gotenv.Load()

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Generate ledger reports and inspect run history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newAppendCmd(), newTemplatesCmd(), newHistoryCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	return utils.NewLogger(utils.LoggerConfig{
		Level:      flagLogLevel,
		OutputPath: "stderr",
		Format:     "console",
	})
}

func newAppendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append one day's loan and repayment records to the ledger workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg := ledger.Config{PrimaryStrategy: source.LoadStrategy(flagStrategy)}
			if flagLoanSheet != "" {
				cfg.LoanSheet = excel.SheetByName(flagLoanSheet)
			}
			if flagRepaySheet != "" {
				cfg.RepaySheet = excel.SheetByName(flagRepaySheet)
			}

			resolver := source.NewResolver(0, logger)
			template := ledger.NewDailyTemplate(cfg, resolver, logger)

			result, err := template.Generate(cmd.Context(), report.GenerateRequest{
				DateInput: flagDate,
				OutputDir: flagOutputDir,
				Paths: map[string]string{
					ledger.SourceLoanDetail:       flagLoans,
					ledger.SourceFactoringRepay:   flagFactoring,
					ledger.SourceRefactoringRepay: flagRefactoring,
					ledger.SourceLedgerWorkbook:   flagLedger,
				},
			})
			if err != nil {
				return err
			}

			if result.NoOp {
				fmt.Printf("No new rows for %s; baseline copied to %s\n", result.YMD, result.OutputPath)
			} else {
				fmt.Printf("Appended %d rows for %s: %s\n", result.AppendedRows, result.YMD, result.OutputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDate, "date", "", "target date, yyyymmdd (required)")
	cmd.Flags().StringVar(&flagLoans, "loans", "", "loan detail workbook (required)")
	cmd.Flags().StringVar(&flagFactoring, "factoring", "", "factoring repayment workbook (required)")
	cmd.Flags().StringVar(&flagRefactoring, "refactoring", "", "refactoring repayment workbook (required)")
	cmd.Flags().StringVar(&flagLedger, "ledger", "", "baseline ledger workbook (required)")
	cmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "output directory (default: next to the ledger)")
	cmd.Flags().StringVar(&flagStrategy, "strategy", "stream", "source load strategy: stream or workbook")
	cmd.Flags().StringVar(&flagLoanSheet, "loan-sheet", "", "loan worksheet name (default: first sheet)")
	cmd.Flags().StringVar(&flagRepaySheet, "repay-sheet", "", "repayment worksheet name (default: first sheet)")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("loans")
	cmd.MarkFlagRequired("factoring")
	cmd.MarkFlagRequired("refactoring")
	cmd.MarkFlagRequired("ledger")

	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available report templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			registry := report.NewRegistry()
			registry.Register(ledger.NewDailyTemplate(ledger.Config{}, source.NewResolver(0, logger), logger))

			for _, meta := range registry.List() {
				fmt.Printf("%s\t%s\n", meta.ID, meta.Name)
				for _, req := range meta.Sources {
					required := "optional"
					if req.Required {
						required = "required"
					}
					fmt.Printf("  %-18s %s (%s)\n", req.ID, req.Label, required)
				}
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded report runs",
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Export run history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.New(database.Config{Path: flagDBPath}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := history.NewRepository(db.DB, logger).List(flagLimit)
			if err != nil {
				return err
			}

			out := os.Stdout
			if flagOut != "" {
				f, err := os.Create(flagOut)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", flagOut, err)
				}
				defer f.Close()
				out = f
			}
			return history.ExportCSV(out, records)
		},
	}
	export.Flags().StringVar(&flagDBPath, "db", "data/ledger-reporter.db", "run history database path")
	export.Flags().StringVar(&flagOut, "out", "", "output file (default: stdout)")
	export.Flags().IntVar(&flagLimit, "limit", 0, "max rows to export, 0 for all")

	cmd.AddCommand(export)
	return cmd
}
