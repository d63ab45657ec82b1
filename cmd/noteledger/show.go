package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger/pkg/letters"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note, its value as of today and its rollover history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(true)
			if err != nil {
				return err
			}
			defer service.Close(cmd.Context())

			id, err := resolveID(service, args[0])
			if err != nil {
				return err
			}
			n, err := service.GetNote(id)
			if err != nil {
				return err
			}
			today, err := a.now()
			if err != nil {
				return err
			}
			v, err := viewOf(service, n, today)
			if err != nil {
				return err
			}
			atMaturity, err := service.Calculator().ValueAtMaturity(n)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "ID:\t%s\n", n.ID)
			fmt.Fprintf(tw, "Client:\t%s\n", n.ClientName())
			fmt.Fprintf(tw, "Project:\t%s\n", n.ProjectName)
			fmt.Fprintf(tw, "Principal:\t%s\n", letters.FormatAmount(n.Principal))
			fmt.Fprintf(tw, "Interest Rate:\t%s\n", letters.FormatRate(n.InterestRate))
			fmt.Fprintf(tw, "Origin:\t%s\n", v.OriginDate)
			fmt.Fprintf(tw, "Term:\t%d months\n", n.TermMonths)
			fmt.Fprintf(tw, "Maturity:\t%s (%d days)\n", v.MaturityDate, v.DaysToMaturity)
			fmt.Fprintf(tw, "Status:\t%s\n", v.Status)
			if label := alertLabel(service.Classify(n, today)); label != "" {
				fmt.Fprintf(tw, "Alert:\t%s\n", label)
			}
			fmt.Fprintf(tw, "Value as of %s:\t%s\n", formatDate(today), v.TotalValue)
			fmt.Fprintf(tw, "Value at maturity:\t%s\n", atMaturity.StringFixed(2))
			if err := tw.Flush(); err != nil {
				return err
			}

			chain, err := service.Chain(n.ID)
			if err != nil {
				return err
			}
			if len(chain) > 1 {
				fmt.Fprintln(out(cmd), "History:")
				for _, prev := range chain[1:] {
					fmt.Fprintf(out(cmd), "  %s  %s -> %s  %s  %s\n",
						prev.ID, formatDate(prev.OriginDate), formatDate(prev.MaturityDate),
						prev.Principal.StringFixed(2), prev.Status)
				}
			}
			return nil
		},
	}
}
