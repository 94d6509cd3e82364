package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/pkg/utils"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "models",
		Short:       "List the available models and genre labels",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipApp": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tuning := classifier.DefaultTuning()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tENDPOINT\tBASE ACCURACY")
			for _, m := range classifier.Models {
				fmt.Fprintf(w, "%s\t/api/predict/%s/\t%s\n", m, m.Slug(), utils.Percent(tuning.Base(m), 2))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nLabels: %v\n", classifier.Labels)
			return nil
		},
	}
}
