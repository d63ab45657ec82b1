package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger"
	"github.com/aretw0/noteledger/internal/config"
	"github.com/aretw0/noteledger/pkg/core"
)

// app carries the persistent flags and the environment configuration
// shared by every command.
type app struct {
	cfg config.Config

	ledger   string
	adapter  string
	readOnly bool
	verbose  bool
	today    string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "noteledger",
		Short: "Track client investment notes, their maturity and rollover",
		Long: `noteledger keeps a ledger of client investment notes.
It computes maturity dates and simple interest, flags notes that are
approaching or past maturity, rolls matured notes into new ones and
writes client letters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			opts := &slog.HandlerOptions{
				Level: level,
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
			slog.SetDefault(a.logger)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&a.ledger, "ledger", "l", "", "Ledger file (.yaml, .yml, .json, .csv, .db, .xlsx); defaults to $NOTELEDGER_PATH or the nearest notes.* file")
	flags.StringVar(&a.adapter, "adapter", "", "Storage adapter: fs, sqlite or xlsx (default: by file extension)")
	flags.BoolVar(&a.readOnly, "read-only", false, "Open the ledger without allowing changes")
	flags.StringVar(&a.today, "today", "", "Date to use as today (YYYY-MM-DD or MM/DD/YYYY)")

	rootCmd.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newRolloverCmd(a),
		newSettleCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ledgerPath applies flag, environment and discovery, in that order.
func (a *app) ledgerPath() string {
	if a.ledger != "" {
		return a.ledger
	}
	if a.cfg.Path != "" {
		return a.cfg.Path
	}
	if wd, err := os.Getwd(); err == nil {
		if found, err := noteledger.FindLedger(wd); err == nil {
			return found
		}
	}
	return ""
}

// open loads the ledger. readOnly forces read-only access for commands
// that never write.
func (a *app) open(readOnly bool) (*core.Service, error) {
	adapter := a.adapter
	if adapter == "" {
		adapter = a.cfg.Adapter
	}
	svc, err := noteledger.New(a.ledgerPath(),
		noteledger.WithAdapter(adapter),
		noteledger.WithLogger(a.logger),
		noteledger.WithReadOnly(readOnly || a.readOnly || a.cfg.ReadOnly),
		noteledger.WithWarningWindow(a.cfg.WarningDays),
		noteledger.WithDefaults(core.Defaults{
			TermMonths:   a.cfg.DefaultTermMonths,
			InterestRate: a.cfg.DefaultRate,
		}),
		noteledger.WithCalculator(a.calculator()),
	)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return svc, nil
}

func (a *app) calculator() core.Calculator {
	return core.Calculator{Basis: a.cfg.DayCountBasis, Places: core.DefaultPlaces}
}

// now returns --today or the current calendar date.
func (a *app) now() (time.Time, error) {
	if a.today == "" {
		return core.Day(time.Now()), nil
	}
	return parseDate("--today", a.today)
}

func parseDate(flag, text string) (time.Time, error) {
	d, err := core.ParseDate(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", flag, err)
	}
	return d, nil
}

func parseDecimal(flag, text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid number %q", flag, text)
	}
	return d, nil
}

// resolveID accepts a full id or an unambiguous prefix of one.
func resolveID(svc *core.Service, arg string) (string, error) {
	if _, err := svc.GetNote(arg); err == nil {
		return arg, nil
	}
	var match string
	for n := range svc.FindNotes(func(n core.Note) bool { return strings.HasPrefix(n.ID, arg) }) {
		if match != "" {
			return "", fmt.Errorf("id prefix %q is ambiguous", arg)
		}
		match = n.ID
	}
	if match == "" || arg == "" {
		return "", fmt.Errorf("%w: %s", core.ErrNotFound, arg)
	}
	return match, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
