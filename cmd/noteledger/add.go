package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		first, last, project string
		principal, rate      string
		origin               string
		term                 int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new investment note",
		Long: `Add a new Active note. The maturity date is computed from the origin
date and the term. Rate and term default to NOTELEDGER_DEFAULT_RATE and
NOTELEDGER_DEFAULT_TERM_MONTHS; the origin date defaults to today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			defer service.Close(ctx)

			today, err := a.now()
			if err != nil {
				return err
			}
			fields := service.NewDraft(today)
			fields.ClientFirstName = first
			fields.ClientLastName = last
			fields.ProjectName = project
			if fields.Principal, err = parseDecimal("--principal", principal); err != nil {
				return err
			}
			if cmd.Flags().Changed("rate") {
				if fields.InterestRate, err = parseDecimal("--rate", rate); err != nil {
					return err
				}
			}
			if origin != "" {
				if fields.OriginDate, err = parseDate("--origin", origin); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("term") {
				fields.TermMonths = term
			}

			note, err := service.AddNote(ctx, fields)
			if err != nil {
				return fmt.Errorf("add note: %w", err)
			}
			fmt.Fprintf(out(cmd), "Added note %s for %s (matures %s)\n",
				note.ID, note.ClientName(), formatDate(note.MaturityDate))
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "Client first name")
	cmd.Flags().StringVar(&last, "last", "", "Client last name")
	cmd.Flags().StringVar(&project, "project", "", "Project name")
	cmd.Flags().StringVar(&principal, "principal", "", "Principal amount")
	cmd.Flags().StringVar(&rate, "rate", "", "Annual interest rate, e.g. 0.05 for 5%")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin date (default today)")
	cmd.Flags().IntVar(&term, "term", 0, "Term in months")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}
