package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSettleCmd(a *app) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "settle <id>",
		Short: "Close a matured note that is paid out instead of rolled over",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			defer service.Close(ctx)

			day, err := a.now()
			if err != nil {
				return err
			}
			if asOf != "" {
				if day, err = parseDate("--as-of", asOf); err != nil {
					return err
				}
			}
			id, err := resolveID(service, args[0])
			if err != nil {
				return err
			}
			n, err := service.Settle(ctx, id, day)
			if err != nil {
				return fmt.Errorf("settle: %w", err)
			}
			payout, err := service.Calculator().ValueAtMaturity(n)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Settled note %s: payout %s\n", n.ID, payout.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Settlement date (default today)")
	return cmd
}
