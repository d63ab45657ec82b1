package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger/pkg/core"
)

func newRolloverCmd(a *app) *cobra.Command {
	var (
		all  bool
		asOf string
		term int
		rate string
	)
	cmd := &cobra.Command{
		Use:   "rollover [id]",
		Short: "Roll matured notes into new notes",
		Long: `Roll a matured note into a new Active note whose principal includes the
interest earned. With --all every Active note that matured before the
as-of date is rolled over, oldest first. Interrupting a batch keeps the
rollovers completed so far.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("pass either an id or --all")
			}
			if !all && len(args) != 1 {
				return fmt.Errorf("requires a note id or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(false)
			if err != nil {
				return err
			}
			defer service.Close(context.Background())

			day, err := a.now()
			if err != nil {
				return err
			}
			if asOf != "" {
				if day, err = parseDate("--as-of", asOf); err != nil {
					return err
				}
			}
			var opts []core.RolloverOption
			if cmd.Flags().Changed("term") {
				opts = append(opts, core.WithTerm(term))
			}
			if cmd.Flags().Changed("rate") {
				r, err := parseDecimal("--rate", rate)
				if err != nil {
					return err
				}
				opts = append(opts, core.WithRate(r))
			}

			if !all {
				id, err := resolveID(service, args[0])
				if err != nil {
					return err
				}
				plan, err := service.Rollover(context.Background(), id, day, opts...)
				if err != nil {
					return fmt.Errorf("rollover: %w", err)
				}
				printRollover(cmd, plan)
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			report, err := service.RolloverAllMatured(ctx, day, opts...)
			for _, res := range report.Results {
				if res.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %s: %v\n", res.NoteID, res.Err)
					continue
				}
				for _, r := range res.Rollovers() {
					printRollover(cmd, r)
				}
			}
			fmt.Fprintf(out(cmd), "%d rolled over, %d failed (as of %s)\n",
				len(report.Succeeded()), len(report.Failed()), formatDate(report.AsOf))
			if report.Canceled {
				return fmt.Errorf("batch interrupted: %w", err)
			}
			if err != nil {
				return err
			}
			if len(report.Failed()) > 0 {
				return errors.New("some notes could not be rolled over")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Roll over every note matured before the as-of date")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Rollover date (default today)")
	cmd.Flags().IntVar(&term, "term", 0, "Term of the new note in months (default: same term)")
	cmd.Flags().StringVar(&rate, "rate", "", "Interest rate of the new note (default: same rate)")
	return cmd
}

func printRollover(cmd *cobra.Command, r core.Rollover) {
	fmt.Fprintf(out(cmd), "Rolled over %s -> %s: principal %s from %s, matures %s\n",
		r.Predecessor.ID, r.Successor.ID, r.Successor.Principal.StringFixed(2),
		formatDate(r.Successor.OriginDate), formatDate(r.Successor.MaturityDate))
}
