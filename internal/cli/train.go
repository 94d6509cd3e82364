package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/dataset"
	"github.com/genre-tester/backend/internal/training"
)

func newTrainCommand(opts *rootOptions) *cobra.Command {
	var (
		model   string
		path    string
		split   int
		shuffle bool
		augment bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a simulated training session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := classifier.ParseModel(model)
			if err != nil {
				return err
			}
			if split < training.MinSplit || split > training.MaxSplit {
				return fmt.Errorf("--split must be between %d and %d", training.MinSplit, training.MaxSplit)
			}
			if path == "" {
				path = opts.app.Config.Dataset.DefaultPath
			}

			samples, err := opts.app.Catalog.Count(cmd.Context(), path)
			if err != nil && !errors.Is(err, dataset.ErrNotFound) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Training %s on %s (%d samples)...\n", id, path, samples)

			res, err := opts.app.Simulator.Train(cmd.Context(), training.Config{
				Model:             id,
				DatasetPath:       path,
				TrainSplitPercent: split,
				Shuffle:           shuffle,
				Augment:           augment,
			}, samples)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Accuracy:     %s\n", res.Accuracy)
			fmt.Fprintf(out, "Split:        %s\n", res.TrainTestSplit)
			fmt.Fprintf(out, "Samples used: %d\n", res.SamplesUsed)
			fmt.Fprintf(out, "Shuffle:      %t\n", res.Shuffle)
			fmt.Fprintf(out, "Augmentation: %t\n", res.Augmentation)
			fmt.Fprintf(out, "Trained at:   %s\n", res.TrainedAt)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "CNN", "Model: CNN|CRNN|KNN|RF|SVM")
	cmd.Flags().StringVarP(&path, "dataset", "d", "", "Dataset path (default from config)")
	cmd.Flags().IntVar(&split, "split", training.DefaultSplit, "Train split percent (60-90)")
	cmd.Flags().BoolVar(&shuffle, "shuffle", true, "Shuffle before splitting")
	cmd.Flags().BoolVar(&augment, "augment", false, "Enable data augmentation")

	return cmd
}
