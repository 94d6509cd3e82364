package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/genre-tester/backend/internal/evaluation"
	"github.com/genre-tester/backend/internal/history"
	"github.com/genre-tester/backend/pkg/utils"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		trainingRuns bool
		source       string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show prediction history, or training history with --training",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			if trainingRuns {
				results, err := opts.app.Simulator.History(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "TRAINED AT\tMODEL\tACCURACY\tSPLIT\tSAMPLES\tDATASET")
				for i, r := range results {
					if limit > 0 && i >= limit {
						break
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
						r.TrainedAt, r.Model, r.Accuracy, r.TrainTestSplit, r.SamplesUsed, r.Dataset)
				}
				return w.Flush()
			}

			var src history.Source
			if source != "" {
				var err error
				if src, err = history.ParseSource(source); err != nil {
					return err
				}
			}
			items, err := opts.app.History.List(cmd.Context(), src, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "FILE\tMODEL\tPREDICTION\tCONFIDENCE\tFEEDBACK\tDATE")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					it.Filename, it.Model, it.PredictedLabel, utils.Percent(it.Confidence, 1), it.Feedback, it.CreatedAt)
			}
			if len(items) == 0 {
				fmt.Fprintln(w, "No prediction history available.")
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&trainingRuns, "training", false, "Show training history instead")
	cmd.Flags().StringVar(&source, "source", "", "Prediction history source: records|mock")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum rows (0 = all)")

	return cmd
}

func newSummaryCommand(opts *rootOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the feedback report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report *evaluation.Report
			if source == string(history.SourceMock) {
				items, err := opts.app.History.List(cmd.Context(), history.SourceMock, 0)
				if err != nil {
					return err
				}
				report = evaluation.Summarize(items)
			} else {
				var err error
				if report, err = opts.app.Evaluator.Report(cmd.Context()); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Use the mock table instead of stored predictions: mock")

	return cmd
}
