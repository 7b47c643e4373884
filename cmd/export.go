package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/render"
	"github.com/KaramelBytes/musicdash/internal/utils"
	"github.com/KaramelBytes/musicdash/internal/view"
)

var (
	expOutDir    string
	expFormat    string
	expMetric    string
	expTop       int
	expX         string
	expY         string
	expGenres    []string
	expFeature   string
	expDistGenre string
	expBins      int
	expQuiet     bool
)

// dashboardExport is the JSON written next to the charts.
type dashboardExport struct {
	Source       string                 `json:"source"`
	Controls     view.Controls          `json:"controls"`
	Ranking      analysis.RankedSummary `json:"ranking"`
	Projection   analysis.Projection    `json:"projection"`
	Distribution analysis.Histogram     `json:"distribution"`
}

type chartJob struct {
	name string
	draw func(*bytes.Buffer) error
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the three dashboard charts and their data to a directory",
	Long: `Export computes the ranking, genre comparison and feature distribution with the
given controls (dashboard defaults otherwise), writes one chart per view as SVG or
PNG, and writes dashboard.json with the underlying data. Views with nothing to
plot are skipped with a warning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(expFormat)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		c, err := exportControls(cmd, ds)
		if err != nil {
			return err
		}
		conf := currentConfig()
		top := expTop
		if !cmd.Flags().Changed("top") {
			top = conf.TopN
		}
		bins := expBins
		if !cmd.Flags().Changed("bins") {
			bins = conf.HistogramBins
		}

		rank, err := analysis.RankByMetric(ds, dataset.Genre, c.Metric, top)
		if err != nil {
			return err
		}
		proj, err := analysis.ProjectByGroup(ds, c.SelectedGenres, c.XAxis, c.YAxis)
		if err != nil {
			return err
		}
		series, err := analysis.FeatureDistribution(ds, c.Genre, c.Feature)
		if err != nil {
			return err
		}
		hist := analysis.BuildHistogram(series, bins)

		ext := "." + string(format)
		jobs := []chartJob{
			{utils.Slug("top_genres", string(c.Metric)) + ext, func(b *bytes.Buffer) error { return render.RankingChart(b, rank, format) }},
			{utils.Slug(string(c.XAxis), "vs", string(c.YAxis)) + ext, func(b *bytes.Buffer) error { return render.ScatterChart(b, proj, format) }},
			{utils.Slug(string(c.Feature), "distribution", c.Genre) + ext, func(b *bytes.Buffer) error { return render.HistogramChart(b, hist, format) }},
		}

		out := cmd.OutOrStdout()
		total := len(jobs) + 1
		for i, job := range jobs {
			if !expQuiet {
				fmt.Fprintf(out, "[%d/%d] Rendering %s...\n", i+1, total, job.name)
			}
			var buf bytes.Buffer
			if err := job.draw(&buf); err != nil {
				if errors.Is(err, render.ErrNothingToDraw) {
					notice(cmd, "Skipped %s: nothing to draw", job.name)
					continue
				}
				return err
			}
			if err := utils.SafeWriteFile(filepath.Join(expOutDir, job.name), buf.Bytes()); err != nil {
				return fmt.Errorf("write %s: %w", job.name, err)
			}
		}

		if !expQuiet {
			fmt.Fprintf(out, "[%d/%d] Writing dashboard.json...\n", total, total)
		}
		data, err := utils.PrettyJSON(dashboardExport{
			Source:       ds.Source(),
			Controls:     c,
			Ranking:      rank,
			Projection:   proj,
			Distribution: hist,
		})
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(filepath.Join(expOutDir, "dashboard.json"), data); err != nil {
			return fmt.Errorf("write dashboard.json: %w", err)
		}
		fmt.Fprintf(out, "✓ Exported dashboard to %s\n", expOutDir)
		return nil
	},
}

// exportControls starts from the dashboard defaults and applies flags.
func exportControls(cmd *cobra.Command, ds *dataset.Dataset) (view.Controls, error) {
	c := view.DefaultControls(ds)
	f := cmd.Flags()
	var err error
	if f.Changed("metric") {
		if c.Metric, err = chooseColumn("metric", expMetric, view.RankMetrics); err != nil {
			return c, err
		}
	}
	if f.Changed("x") {
		if c.XAxis, err = chooseColumn("x", expX, view.AxisFeatures); err != nil {
			return c, err
		}
	}
	if f.Changed("y") {
		if c.YAxis, err = chooseColumn("y", expY, view.AxisFeatures); err != nil {
			return c, err
		}
	}
	if f.Changed("feature") {
		if c.Feature, err = chooseColumn("feature", expFeature, view.DistributionFeatures); err != nil {
			return c, err
		}
	}
	if f.Changed("genre") {
		c.SelectedGenres = expGenres
	}
	if f.Changed("dist-genre") {
		c.Genre = expDistGenre
	}
	return c, c.Validate()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expOutDir, "out", "o", "musicdash-export", "output directory")
	exportCmd.Flags().StringVar(&expFormat, "format", "svg", "chart format: svg|png")
	exportCmd.Flags().StringVarP(&expMetric, "metric", "m", string(view.RankMetrics[0]), "ranking metric")
	exportCmd.Flags().IntVarP(&expTop, "top", "n", analysis.DefaultTopN, "number of ranked genres")
	exportCmd.Flags().StringVar(&expX, "x", string(view.AxisFeatures[0]), "comparison x-axis feature")
	exportCmd.Flags().StringVar(&expY, "y", string(view.AxisFeatures[1]), "comparison y-axis feature")
	exportCmd.Flags().StringSliceVarP(&expGenres, "genre", "g", nil, "genre to compare (repeatable)")
	exportCmd.Flags().StringVarP(&expFeature, "feature", "f", string(view.DistributionFeatures[0]), "distribution feature")
	exportCmd.Flags().StringVar(&expDistGenre, "dist-genre", "", "genre for the distribution (default: first genre)")
	exportCmd.Flags().IntVar(&expBins, "bins", analysis.DefaultBins, "histogram bins")
	exportCmd.Flags().BoolVarP(&expQuiet, "quiet", "q", false, "suppress progress output")
}
