package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/flow"
)

func newPredictCommand(opts *rootOptions) *cobra.Command {
	var (
		model   string
		file    string
		verdict string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the genre of an audio file",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(verdict) {
			case "", "correct", "incorrect":
				return nil
			}
			return fmt.Errorf("invalid --feedback %q (expected correct|incorrect)", verdict)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := classifier.ParseModel(model)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			out := cmd.OutOrStdout()
			f := flow.New(opts.app.Predictor, opts.app.Feedback)

			fmt.Fprintf(out, "Uploading %s to %s...\n", filepath.Base(file), id)
			snap, err := f.Upload(cmd.Context(), classifier.PredictRequest{
				Model:    id,
				Filename: filepath.Base(file),
				Data:     data,
			})
			if err != nil {
				return err
			}

			p := snap.Prediction
			fmt.Fprintf(out, "Model:          %s\n", p.ModelName)
			fmt.Fprintf(out, "Predicted:      %s\n", p.PredictedLabel)
			fmt.Fprintf(out, "Confidence:     %s\n", p.Confidence)
			fmt.Fprintf(out, "Model accuracy: %s\n", p.Accuracy)
			fmt.Fprintf(out, "File id:        %s\n", p.FileID)

			if verdict == "" {
				return nil
			}
			snap, err = f.Feedback(cmd.Context(), strings.EqualFold(verdict, "correct"))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, snap.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "CNN", "Model: CNN|CRNN|KNN|RF|SVM")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Audio file to classify (required)")
	cmd.Flags().StringVar(&verdict, "feedback", "", "Send feedback right away: correct|incorrect")
	cmd.MarkFlagRequired("file")

	return cmd
}
