package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/view"
)

var (
	distFeature string
	distGenre   string
	distBins    int
	distJSON    bool
)

var distributionCmd = &cobra.Command{
	Use:     "distribution",
	Aliases: []string{"dist"},
	Short:   "Show how a feature is distributed within one genre",
	Example: `  musicdash distribution --feature loudness --genre acoustic --bins 20`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, err := chooseColumn("feature", distFeature, view.DistributionFeatures)
		if err != nil {
			return err
		}
		bins := distBins
		if !cmd.Flags().Changed("bins") {
			bins = currentConfig().HistogramBins
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		genre := distGenre
		if genre == "" {
			genre = view.DefaultControls(ds).Genre
		}
		series, err := analysis.FeatureDistribution(ds, genre, feature)
		if err != nil {
			return err
		}
		hist := analysis.BuildHistogram(series, bins)
		if hist.Empty() {
			notice(cmd, "No %s values for genre %q", feature, genre)
		}
		return emit(cmd, distJSON, hist)
	},
}

func init() {
	rootCmd.AddCommand(distributionCmd)
	distributionCmd.Flags().StringVarP(&distFeature, "feature", "f", string(view.DistributionFeatures[0]), "feature: tempo|loudness|speechiness|instrumentalness")
	distributionCmd.Flags().StringVarP(&distGenre, "genre", "g", "", "genre to inspect (default: first genre in the dataset)")
	distributionCmd.Flags().IntVar(&distBins, "bins", analysis.DefaultBins, "histogram bins (<= 0 uses the default)")
	distributionCmd.Flags().BoolVar(&distJSON, "json", false, "print JSON instead of text")
}
