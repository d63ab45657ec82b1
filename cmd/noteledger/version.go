package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of noteledger",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out(cmd), "noteledger version %s\n", noteledger.Version)
		},
	}
}
