package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/view"
)

var (
	rankMetric string
	rankTop    int
	rankJSON   bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank genres by the average of a metric",
	Example: `  musicdash rank --metric energy
  musicdash rank --metric popularity --top 5 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metric, err := chooseColumn("metric", rankMetric, view.RankMetrics)
		if err != nil {
			return err
		}
		top := rankTop
		if !cmd.Flags().Changed("top") {
			top = currentConfig().TopN
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		res, err := analysis.RankByMetric(ds, dataset.Genre, metric, top)
		if err != nil {
			return err
		}
		if res.Empty() {
			notice(cmd, "No genre has a value for %s", metric)
		}
		return emit(cmd, rankJSON, res)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVarP(&rankMetric, "metric", "m", string(view.RankMetrics[0]), "metric to average: popularity|danceability|energy|tempo")
	rankCmd.Flags().IntVarP(&rankTop, "top", "n", analysis.DefaultTopN, "number of genres to show (<= 0 uses the default)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print JSON instead of text")
}
