package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/view"
)

var (
	cmpX      string
	cmpY      string
	cmpGenres []string
	cmpJSON   bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare genres on two audio features",
	Long: `Compare plots each selected genre's tracks on an x/y feature pair. Text output
summarises each genre; --json includes every point. Without --genre the first
five genres of the dataset are compared.`,
	Example: `  musicdash compare --x tempo --y valence --genre pop --genre rock`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := chooseColumn("x", cmpX, view.AxisFeatures)
		if err != nil {
			return err
		}
		y, err := chooseColumn("y", cmpY, view.AxisFeatures)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		selected := cmpGenres
		if !cmd.Flags().Changed("genre") {
			selected = view.DefaultControls(ds).SelectedGenres
		}
		res, err := analysis.ProjectByGroup(ds, selected, x, y)
		if err != nil {
			return err
		}
		if res.Empty() {
			notice(cmd, "Nothing to plot for the selected genres")
		}
		return emit(cmd, cmpJSON, res)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&cmpX, "x", string(view.AxisFeatures[0]), "x-axis feature: danceability|energy|tempo|valence")
	compareCmd.Flags().StringVar(&cmpY, "y", string(view.AxisFeatures[1]), "y-axis feature: danceability|energy|tempo|valence")
	compareCmd.Flags().StringSliceVarP(&cmpGenres, "genre", "g", nil, "genre to compare (repeatable or comma-separated)")
	compareCmd.Flags().BoolVar(&cmpJSON, "json", false, "print JSON instead of text")
}
