package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a note",
		Long:  `Remove a note. A note that another note was rolled over from cannot be removed.`,
		Args:  cobra.ExactArgs(1),
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
			if err := service.RemoveNote(ctx, id); err != nil {
				return fmt.Errorf("delete note: %w", err)
			}
			fmt.Fprintf(out(cmd), "Note %s deleted.\n", id)
			return nil
		},
	}
}
