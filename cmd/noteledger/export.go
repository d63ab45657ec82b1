package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aretw0/noteledger/pkg/core"
	"github.com/aretw0/noteledger/pkg/letters"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		dir         string
		format      string
		ids         []string
		activeOnly  bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one client letter per note",
		Long: `Write a client letter for each note into the output directory, named
First_Last.pdf (or .txt). When a client holds several notes the file names
carry the end of the note id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(true)
			if err != nil {
				return err
			}
			defer service.Close(context.Background())

			today, err := a.now()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dir") {
				dir = a.cfg.OutputDir
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.LetterFormat
			}
			renderer, err := letters.RendererFor(format)
			if err != nil {
				return err
			}

			var notes []core.Note
			if len(ids) > 0 {
				for _, arg := range ids {
					id, err := resolveID(service, arg)
					if err != nil {
						return err
					}
					n, err := service.GetNote(id)
					if err != nil {
						return err
					}
					notes = append(notes, n)
				}
			} else {
				pred := core.Predicate(nil)
				if activeOnly {
					pred = core.ByStatus(core.StatusActive)
				}
				for n := range service.FindNotes(pred) {
					notes = append(notes, n)
				}
			}
			if len(notes) == 0 {
				fmt.Fprintln(out(cmd), "No notes to export.")
				return nil
			}

			ls, err := letters.NewLetters(notes, today, service.Calculator())
			if err != nil {
				return err
			}
			exporter := &letters.Exporter{
				Renderer:    renderer,
				Dir:         dir,
				Concurrency: concurrency,
				Logger:      a.logger,
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			paths, err := exporter.Export(ctx, ls)
			if err != nil {
				return fmt.Errorf("export letters: %w", err)
			}
			for _, p := range paths {
				fmt.Fprintln(out(cmd), p)
			}
			fmt.Fprintf(out(cmd), "%d letters written to %s\n", len(paths), dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "o", "", "Output directory (default $NOTELEDGER_OUTPUT_DIR or ./letters)")
	cmd.Flags().StringVar(&format, "format", "", "Letter format: pdf or txt (default $NOTELEDGER_LETTER_FORMAT or pdf)")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Only these notes (repeatable)")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only Active notes")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Letters rendered at once (default: number of CPUs)")
	return cmd
}
