package view

import (
	"fmt"

	"github.com/KaramelBytes/musicdash/internal/dataset"
)

// Choices offered by each dashboard selector.
var (
	RankMetrics          = []dataset.Column{dataset.Popularity, dataset.Danceability, dataset.Energy, dataset.Tempo}
	AxisFeatures         = []dataset.Column{dataset.Danceability, dataset.Energy, dataset.Tempo, dataset.Valence}
	DistributionFeatures = []dataset.Column{dataset.Tempo, dataset.Loudness, dataset.Speechiness, dataset.Instrumentalness}
)

// DefaultSelectedGenres is how many genres the comparison starts with.
const DefaultSelectedGenres = 5

// Controls are the dashboard selector values for one render pass.
type Controls struct {
	Metric         dataset.Column `json:"metric"`
	XAxis          dataset.Column `json:"x_axis"`
	YAxis          dataset.Column `json:"y_axis"`
	SelectedGenres []string       `json:"selected_genres"`
	Feature        dataset.Column `json:"feature"`
	Genre          string         `json:"genre"`
}

// DefaultControls mirrors the dashboard's initial selector state for ds.
func DefaultControls(ds *dataset.Dataset) Controls {
	genres := ds.Genres()
	c := Controls{
		Metric:         RankMetrics[0],
		XAxis:          AxisFeatures[0],
		YAxis:          AxisFeatures[1],
		Feature:        DistributionFeatures[0],
		SelectedGenres: []string{},
	}
	n := DefaultSelectedGenres
	if len(genres) < n {
		n = len(genres)
	}
	c.SelectedGenres = append(c.SelectedGenres, genres[:n]...)
	if len(genres) > 0 {
		c.Genre = genres[0]
	}
	return c
}

// Validate checks every selector value against its choices.
func (c Controls) Validate() error {
	if err := Choose(c.Metric, RankMetrics); err != nil {
		return fmt.Errorf("metric: %w", err)
	}
	if err := Choose(c.XAxis, AxisFeatures); err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	if err := Choose(c.YAxis, AxisFeatures); err != nil {
		return fmt.Errorf("y axis: %w", err)
	}
	if err := Choose(c.Feature, DistributionFeatures); err != nil {
		return fmt.Errorf("feature: %w", err)
	}
	return nil
}

// Choose fails with an InvalidColumnError when c is not one of allowed.
func Choose(c dataset.Column, allowed []dataset.Column) error {
	for _, a := range allowed {
		if a == c {
			return nil
		}
	}
	return &dataset.InvalidColumnError{Column: string(c), Reason: fmt.Sprintf("must be one of %v", allowed)}
}

// Names returns the column names of cols.
func Names(cols []dataset.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}
