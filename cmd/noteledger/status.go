package main

import (
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/noteledger/pkg/core"
)

// ledgerNode is the tree handed to introspection.TreeDiagram.
type ledgerNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []ledgerNode
}

func newStatusCmd(a *app) *cobra.Command {
	var diagram bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the note store and its storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(true)
			if err != nil {
				return err
			}
			defer service.Close(cmd.Context())

			report := map[string]any{
				service.ComponentType(): service.State(),
			}
			repoType := "repository"
			if comp, ok := service.Repository().(introspection.Component); ok {
				repoType = comp.ComponentType()
			}
			if intro, ok := service.Repository().(introspection.Introspectable); ok {
				report[repoType] = intro.State()
			}

			if diagram {
				config := introspection.DefaultDiagramConfig()
				config.SecondaryID = "ledger"
				config.SecondaryLabel = "Ledger Topology"
				fmt.Fprintln(out(cmd), introspection.TreeDiagram(buildLedgerTree(service, repoType), config))
				return nil
			}

			data, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			_, err = out(cmd).Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&diagram, "diagram", false, "Print a Mermaid diagram instead of the state")
	return cmd
}

func buildLedgerTree(service *core.Service, repoType string) ledgerNode {
	state, _ := service.State().(core.ServiceState)
	status := "running"
	if state.ReadOnly {
		status = "suspended"
	}
	return ledgerNode{
		Name:   "Note Store",
		Status: status,
		Metadata: map[string]string{
			"type":  "container",
			"notes": fmt.Sprintf("%d", state.Notes),
		},
		Children: []ledgerNode{
			{
				Name:   "Storage",
				Status: "running",
				Metadata: map[string]string{
					"type":    "process",
					"adapter": repoType,
				},
			},
		},
	}
}
