package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/utils"
)

var (
	sumOutputPath string
	sumJSON       bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the dataset: schema, column statistics and largest genres",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		rep := analysis.Summarize(ds)
		if sumOutputPath == "" {
			return emit(cmd, sumJSON, rep)
		}

		var data []byte
		if sumJSON {
			if data, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			data = []byte(rep.Markdown())
		}
		if err := utils.SafeWriteFile(sumOutputPath, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the summary")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "JSON instead of Markdown")
}
