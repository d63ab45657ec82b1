package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger/pkg/core"
)

func newUpdateCmd(a *app) *cobra.Command {
	var (
		first, last, project string
		principal, rate      string
		origin               string
		term                 int
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit fields of a note",
		Long: `Edit the given fields of a note; fields not passed stay unchanged.
The maturity date is recomputed. Principal, rate, origin and term cannot be
changed once a note is rolled over or settled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			defer service.Close(ctx)

			id, err := resolveID(service, args[0])
			if err != nil {
				return err
			}

			var patch core.NotePatch
			flags := cmd.Flags()
			if flags.Changed("first") {
				patch.ClientFirstName = &first
			}
			if flags.Changed("last") {
				patch.ClientLastName = &last
			}
			if flags.Changed("project") {
				patch.ProjectName = &project
			}
			if flags.Changed("principal") {
				d, err := parseDecimal("--principal", principal)
				if err != nil {
					return err
				}
				patch.Principal = &d
			}
			if flags.Changed("rate") {
				d, err := parseDecimal("--rate", rate)
				if err != nil {
					return err
				}
				patch.InterestRate = &d
			}
			if flags.Changed("origin") {
				d, err := parseDate("--origin", origin)
				if err != nil {
					return err
				}
				patch.OriginDate = &d
			}
			if flags.Changed("term") {
				patch.TermMonths = &term
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update")
			}

			note, err := service.UpdateNote(ctx, id, patch)
			if err != nil {
				return fmt.Errorf("update note: %w", err)
			}
			fmt.Fprintf(out(cmd), "Updated note %s (matures %s)\n", note.ID, formatDate(note.MaturityDate))
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "Client first name")
	cmd.Flags().StringVar(&last, "last", "", "Client last name")
	cmd.Flags().StringVar(&project, "project", "", "Project name")
	cmd.Flags().StringVar(&principal, "principal", "", "Principal amount")
	cmd.Flags().StringVar(&rate, "rate", "", "Annual interest rate")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin date")
	cmd.Flags().IntVar(&term, "term", 0, "Term in months")
	return cmd
}
