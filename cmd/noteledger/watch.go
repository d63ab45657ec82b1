package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	ledgerlifecycle "github.com/aretw0/noteledger/pkg/adapters/lifecycle"
	"github.com/aretw0/noteledger/pkg/core"
)

func newWatchCmd(a *app) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow external edits of a file ledger and report maturity alerts",
		Long: `Watch the ledger file for changes made by other programs (an editor,
a sync client). After each change the ledger is reloaded and the notes
approaching or past maturity are reported. Stops on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(true)
			if err != nil {
				return err
			}
			defer service.Close(context.Background())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			events, err := service.Watch(ctx)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			source := ledgerlifecycle.NewSource(events)
			if err := source.Start(ctx); err != nil {
				return fmt.Errorf("watch: %w", err)
			}

			if err := reportAlerts(cmd, a, service); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Watching for changes...")
			for e := range source.Events() {
				fmt.Fprintf(out(cmd), "Ledger changed: %s\n", e)
				if err := service.Load(ctx); err != nil {
					a.logger.Warn("reload failed, keeping previous notes", "error", err)
					continue
				}
				if err := reportAlerts(cmd, a, service); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (default: until interrupted)")
	return cmd
}

func reportAlerts(cmd *cobra.Command, a *app, service *core.Service) error {
	today, err := a.now()
	if err != nil {
		return err
	}
	past, approaching := 0, 0
	for n := range service.FindNotes(core.ByStatus(core.StatusActive)) {
		switch service.Classify(n, today) {
		case core.PastMaturity:
			past++
		case core.ApproachingMaturity:
			approaching++
		}
	}
	fmt.Fprintf(out(cmd), "%d notes: %d past maturity, %d approaching maturity\n",
		service.Len(), past, approaching)
	return nil
}
