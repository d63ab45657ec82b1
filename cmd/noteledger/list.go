package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger/pkg/core"
	"github.com/aretw0/noteledger/pkg/letters"
)

// noteView is the JSON form of a note in command output.
type noteView struct {
	ID              string `json:"id"`
	ClientFirstName string `json:"client_first_name"`
	ClientLastName  string `json:"client_last_name"`
	ProjectName     string `json:"project_name,omitempty"`
	Principal       string `json:"principal"`
	InterestRate    string `json:"interest_rate"`
	OriginDate      string `json:"origin_date"`
	TermMonths      int    `json:"term_months"`
	MaturityDate    string `json:"maturity_date"`
	Status          string `json:"status"`
	PredecessorID   string `json:"predecessor_id,omitempty"`
	Classification  string `json:"classification"`
	DaysToMaturity  int    `json:"days_to_maturity"`
	TotalValue      string `json:"total_value"`
}

func viewOf(svc *core.Service, n core.Note, today time.Time) (noteView, error) {
	total, err := svc.TotalValue(n, today)
	if err != nil {
		return noteView{}, err
	}
	return noteView{
		ID:              n.ID,
		ClientFirstName: n.ClientFirstName,
		ClientLastName:  n.ClientLastName,
		ProjectName:     n.ProjectName,
		Principal:       n.Principal.String(),
		InterestRate:    n.InterestRate.String(),
		OriginDate:      core.FormatDate(n.OriginDate),
		TermMonths:      n.TermMonths,
		MaturityDate:    core.FormatDate(n.MaturityDate),
		Status:          n.Status.String(),
		PredecessorID:   n.PredecessorID,
		Classification:  svc.Classify(n, today).String(),
		DaysToMaturity:  core.DaysToMaturity(n, today),
		TotalValue:      total.StringFixed(2),
	}, nil
}

func alertLabel(c core.Classification) string {
	switch c {
	case core.PastMaturity:
		return "PAST MATURITY"
	case core.ApproachingMaturity:
		return "APPROACHING"
	}
	return ""
}

func formatDate(t time.Time) string {
	return core.FormatDate(t)
}

func newListCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		alertsOnly  bool
		status      string
		client      string
		project     string
		projectGlob string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, flagging those approaching or past maturity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(true)
			if err != nil {
				return err
			}
			defer service.Close(cmd.Context())

			today, err := a.now()
			if err != nil {
				return err
			}

			var preds []core.Predicate
			if status != "" {
				s, err := core.ParseStatus(status)
				if err != nil {
					return err
				}
				preds = append(preds, core.ByStatus(s))
			}
			if client != "" {
				first, last, _ := strings.Cut(strings.TrimSpace(client), " ")
				preds = append(preds, core.ByClient(first, last))
			}
			if project != "" {
				preds = append(preds, core.ProjectContains(project))
			}
			if projectGlob != "" {
				preds = append(preds, core.ProjectMatches(projectGlob))
			}
			if alertsOnly {
				preds = append(preds, func(n core.Note) bool {
					return service.Classify(n, today).Alert()
				})
			}

			views := []noteView{}
			for n := range service.FindNotes(core.And(preds...)) {
				v, err := viewOf(service, n, today)
				if err != nil {
					return err
				}
				views = append(views, v)
			}

			if asJSON {
				encoder := json.NewEncoder(out(cmd))
				encoder.SetIndent("", "  ")
				return encoder.Encode(views)
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCLIENT\tPROJECT\tPRINCIPAL\tRATE\tORIGIN\tMATURITY\tSTATUS\tALERT")
			for n := range service.FindNotes(core.And(preds...)) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					n.ID,
					n.ClientName(),
					n.ProjectName,
					letters.FormatAmount(n.Principal),
					letters.FormatRate(n.InterestRate),
					formatDate(n.OriginDate),
					formatDate(n.MaturityDate),
					n.Status,
					alertLabel(service.Classify(n, today)),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&alertsOnly, "alerts", false, "Only notes approaching or past maturity")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: active, matured, rolled_over")
	cmd.Flags().StringVar(&client, "client", "", `Filter by client, "First Last"`)
	cmd.Flags().StringVar(&project, "project", "", "Filter by project name (substring, any case)")
	cmd.Flags().StringVar(&projectGlob, "match", "", `Filter by project glob, e.g. "Harbor*"`)
	return cmd
}
