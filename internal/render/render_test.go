package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/dataset"
)

func sample() *dataset.Dataset {
	return dataset.New("mem", []dataset.Track{
		dataset.NewTrack("pop", map[dataset.Column]float64{dataset.Popularity: 80, dataset.Danceability: 0.7, dataset.Energy: 0.6, dataset.Tempo: 120}),
		dataset.NewTrack("pop", map[dataset.Column]float64{dataset.Popularity: 60, dataset.Danceability: 0.5, dataset.Energy: 0.9, dataset.Tempo: 128}),
		dataset.NewTrack("rock", map[dataset.Column]float64{dataset.Popularity: 50, dataset.Danceability: 0.3, dataset.Energy: 0.8, dataset.Tempo: 140}),
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" SVG ")
	require.NoError(t, err)
	assert.Equal(t, SVG, f)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	f, err = ParseFormat("png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestRankingChart(t *testing.T) {
	r, err := analysis.RankByMetric(sample(), dataset.Genre, dataset.Popularity, 10)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RankingChart(&buf, r, SVG))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "pop")
}

func TestScatterChart(t *testing.T) {
	p, err := analysis.ProjectByGroup(sample(), []string{"pop", "rock"}, dataset.Danceability, dataset.Energy)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ScatterChart(&buf, p, SVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestScatterChartSinglePoint(t *testing.T) {
	p, err := analysis.ProjectByGroup(sample(), []string{"rock"}, dataset.Tempo, dataset.Tempo)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ScatterChart(&buf, p, PNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestHistogramChart(t *testing.T) {
	s, err := analysis.FeatureDistribution(sample(), "pop", dataset.Tempo)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, HistogramChart(&buf, analysis.BuildHistogram(s, 10), SVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestNothingToDraw(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RankingChart(&buf, analysis.RankedSummary{}, SVG), ErrNothingToDraw)
	assert.ErrorIs(t, ScatterChart(&buf, analysis.Projection{}, SVG), ErrNothingToDraw)
	assert.ErrorIs(t, HistogramChart(&buf, analysis.Histogram{}, SVG), ErrNothingToDraw)
	assert.ErrorIs(t, ErrNothingToDraw, analysis.ErrEmptyResult)
	assert.Zero(t, buf.Len())
}

func flat() *dataset.Dataset {
	return dataset.New("mem", []dataset.Track{
		dataset.NewTrack("jazz", map[dataset.Column]float64{dataset.Danceability: 0.5, dataset.Tempo: 140, dataset.Loudness: -7}),
		dataset.NewTrack("soul", map[dataset.Column]float64{dataset.Danceability: 0.5, dataset.Tempo: 100, dataset.Loudness: -7}),
		dataset.NewTrack("soul", map[dataset.Column]float64{dataset.Danceability: 0.5, dataset.Tempo: 120, dataset.Loudness: -7}),
	})
}

func TestRankingChartFlatValues(t *testing.T) {
	for _, metric := range []dataset.Column{dataset.Danceability, dataset.Loudness} {
		r, err := analysis.RankByMetric(flat(), dataset.Genre, metric, 10)
		require.NoError(t, err)
		require.Len(t, r.Entries, 2)

		var buf bytes.Buffer
		require.NoError(t, RankingChart(&buf, r, SVG), metric)
		assert.Contains(t, buf.String(), "<svg")
	}

	r, err := analysis.RankByMetric(flat(), dataset.Genre, dataset.Tempo, 1)
	require.NoError(t, err)
	require.Len(t, r.Entries, 1)
	var buf bytes.Buffer
	require.NoError(t, RankingChart(&buf, r, PNG))
}

func TestHistogramChartSingleValue(t *testing.T) {
	s, err := analysis.FeatureDistribution(flat(), "jazz", dataset.Tempo)
	require.NoError(t, err)
	h := analysis.BuildHistogram(s, 30)
	require.Len(t, h.Bins, 1)

	var buf bytes.Buffer
	require.NoError(t, HistogramChart(&buf, h, SVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestHistogramChartEqualCounts(t *testing.T) {
	s, err := analysis.FeatureDistribution(flat(), "soul", dataset.Tempo)
	require.NoError(t, err)
	h := analysis.BuildHistogram(s, 2)
	require.Len(t, h.Bins, 2)
	assert.Equal(t, h.Bins[0].Count, h.Bins[1].Count)
	require.NotEmpty(t, h.Density)

	var buf bytes.Buffer
	require.NoError(t, HistogramChart(&buf, h, PNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestBarRange(t *testing.T) {
	r := barRange([]chart.Value{{Value: 0.5}, {Value: 0.5}})
	assert.Equal(t, 0.0, r.Min)
	assert.InDelta(t, 0.55, r.Max, 1e-9)

	r = barRange([]chart.Value{{Value: -7}, {Value: -3}})
	assert.InDelta(t, -7.7, r.Min, 1e-9)
	assert.Equal(t, 0.0, r.Max)

	r = barRange([]chart.Value{{Value: 0}})
	assert.Equal(t, 0.0, r.Min)
	assert.InDelta(t, 1.1, r.Max, 1e-9)
}
