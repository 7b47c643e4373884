package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/KaramelBytes/musicdash/internal/dataset"
)

func track(genre string, vals map[dataset.Column]float64) dataset.Track {
	return dataset.NewTrack(genre, vals)
}

func scenarioDataset() *dataset.Dataset {
	return dataset.New("mem", []dataset.Track{
		track("pop", map[dataset.Column]float64{dataset.Popularity: 80, dataset.Danceability: 0.7, dataset.Energy: 0.6}),
		track("pop", map[dataset.Column]float64{dataset.Popularity: 60, dataset.Danceability: 0.5, dataset.Energy: 0.9}),
		track("rock", map[dataset.Column]float64{dataset.Popularity: 50, dataset.Danceability: 0.3, dataset.Energy: 0.8}),
	})
}

func TestRankByMetric_Scenario(t *testing.T) {
	got, err := RankByMetric(scenarioDataset(), dataset.Genre, dataset.Popularity, 10)
	if err != nil {
		t.Fatalf("RankByMetric: %v", err)
	}
	want := []RankEntry{{Group: "pop", Mean: 70, Count: 2}, {Group: "rock", Mean: 50, Count: 1}}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Fatalf("entries = %+v, want %+v", got.Entries, want)
	}
}

func TestRankByMetric_InvalidColumn(t *testing.T) {
	tests := []struct {
		name     string
		groupKey dataset.Column
		metric   dataset.Column
	}{
		{name: "unknown metric", groupKey: dataset.Genre, metric: dataset.Column("nonexistent_col")},
		{name: "categorical metric", groupKey: dataset.Genre, metric: dataset.Artists},
		{name: "numeric group key", groupKey: dataset.Tempo, metric: dataset.Popularity},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := RankByMetric(scenarioDataset(), tc.groupKey, tc.metric, 10)
			if !errors.Is(err, dataset.ErrInvalidColumn) {
				t.Fatalf("expected ErrInvalidColumn, got %v", err)
			}
		})
	}
}

func TestRankByMetric_MissingSchemaColumn(t *testing.T) {
	ds := dataset.New("mem", []dataset.Track{track("pop", map[dataset.Column]float64{dataset.Popularity: 1})}, dataset.Genre, dataset.Popularity)
	if _, err := RankByMetric(ds, dataset.Genre, dataset.Energy, 10); !errors.Is(err, dataset.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn for absent column, got %v", err)
	}
}

func TestRankByMetric_TruncatesSortsAndKeepsTieOrder(t *testing.T) {
	var tracks []dataset.Track
	genres := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for i, g := range genres {
		tracks = append(tracks, track(g, map[dataset.Column]float64{dataset.Energy: float64(i % 4)}))
	}
	ds := dataset.New("mem", tracks)

	got, err := RankByMetric(ds, dataset.Genre, dataset.Energy, 0)
	if err != nil {
		t.Fatalf("RankByMetric: %v", err)
	}
	if len(got.Entries) != DefaultTopN {
		t.Fatalf("len = %d, want %d", len(got.Entries), DefaultTopN)
	}
	for i := 1; i < len(got.Entries); i++ {
		if got.Entries[i].Mean > got.Entries[i-1].Mean {
			t.Fatalf("not sorted non-increasing at %d: %+v", i, got.Entries)
		}
	}
	// energy 3 belongs to d, h, l in first-occurrence order
	if got.Entries[0].Group != "d" || got.Entries[1].Group != "h" || got.Entries[2].Group != "l" {
		t.Fatalf("tie order broken: %+v", got.Entries[:3])
	}
	seen := map[string]bool{}
	for _, g := range genres {
		seen[g] = true
	}
	for _, e := range got.Entries {
		if !seen[e.Group] {
			t.Fatalf("group %q not in dataset", e.Group)
		}
	}

	top3, _ := RankByMetric(ds, dataset.Genre, dataset.Energy, 3)
	if len(top3.Entries) != 3 {
		t.Fatalf("top3 len = %d", len(top3.Entries))
	}
}

func TestRankByMetric_IgnoresMissingValues(t *testing.T) {
	ds := dataset.New("mem", []dataset.Track{
		track("pop", map[dataset.Column]float64{dataset.Tempo: 100}),
		track("pop", nil),
		track("jazz", nil),
	})
	got, err := RankByMetric(ds, dataset.Genre, dataset.Tempo, 10)
	if err != nil {
		t.Fatalf("RankByMetric: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Mean != 100 || got.Entries[0].Count != 1 {
		t.Fatalf("entries = %+v", got.Entries)
	}
}

func TestProjectByGroup_PreservesRowOrder(t *testing.T) {
	got, err := ProjectByGroup(scenarioDataset(), []string{"pop"}, dataset.Danceability, dataset.Energy)
	if err != nil {
		t.Fatalf("ProjectByGroup: %v", err)
	}
	want := map[string][]Point{"pop": {{X: 0.7, Y: 0.6}, {X: 0.5, Y: 0.9}}}
	if !reflect.DeepEqual(got.Series, want) {
		t.Fatalf("series = %+v, want %+v", got.Series, want)
	}
	if !reflect.DeepEqual(got.Order, []string{"pop"}) {
		t.Fatalf("order = %v", got.Order)
	}
}

func TestProjectByGroup_EmptySelection(t *testing.T) {
	got, err := ProjectByGroup(scenarioDataset(), nil, dataset.Danceability, dataset.Energy)
	if err != nil {
		t.Fatalf("ProjectByGroup: %v", err)
	}
	if len(got.Series) != 0 || !got.Empty() {
		t.Fatalf("expected empty mapping, got %+v", got.Series)
	}
}

func TestProjectByGroup_DuplicatesUnknownAndSameAxis(t *testing.T) {
	got, err := ProjectByGroup(scenarioDataset(), []string{"rock", "jazz", "rock"}, dataset.Energy, dataset.Energy)
	if err != nil {
		t.Fatalf("ProjectByGroup: %v", err)
	}
	if !reflect.DeepEqual(got.Order, []string{"rock", "jazz"}) {
		t.Fatalf("order = %v", got.Order)
	}
	if pts := got.Series["jazz"]; len(pts) != 0 {
		t.Fatalf("jazz should be empty, got %v", pts)
	}
	if pts := got.Series["rock"]; len(pts) != 1 || pts[0].X != pts[0].Y {
		t.Fatalf("rock diagonal point expected, got %v", pts)
	}
}

func TestProjectByGroup_InvalidAxis(t *testing.T) {
	_, err := ProjectByGroup(scenarioDataset(), []string{"pop"}, dataset.Genre, dataset.Energy)
	if !errors.Is(err, dataset.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}

func TestFeatureDistribution(t *testing.T) {
	ds := scenarioDataset()
	got, err := FeatureDistribution(ds, "pop", dataset.Popularity)
	if err != nil {
		t.Fatalf("FeatureDistribution: %v", err)
	}
	if !reflect.DeepEqual(got.Values, []float64{80, 60}) {
		t.Fatalf("values = %v", got.Values)
	}

	none, err := FeatureDistribution(ds, "polka", dataset.Popularity)
	if err != nil {
		t.Fatalf("unmatched genre should not fail: %v", err)
	}
	if !none.Empty() || none.Values == nil {
		t.Fatalf("expected empty non-nil series, got %#v", none.Values)
	}

	if _, err := FeatureDistribution(ds, "pop", dataset.Artists); !errors.Is(err, dataset.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}

func TestEnginesAreIdempotent(t *testing.T) {
	ds := scenarioDataset()
	r1, _ := RankByMetric(ds, dataset.Genre, dataset.Energy, 10)
	r2, _ := RankByMetric(ds, dataset.Genre, dataset.Energy, 10)
	p1, _ := ProjectByGroup(ds, []string{"pop", "rock"}, dataset.Danceability, dataset.Energy)
	p2, _ := ProjectByGroup(ds, []string{"pop", "rock"}, dataset.Danceability, dataset.Energy)
	d1, _ := FeatureDistribution(ds, "rock", dataset.Energy)
	d2, _ := FeatureDistribution(ds, "rock", dataset.Energy)
	if !reflect.DeepEqual(r1, r2) || !reflect.DeepEqual(p1, p2) || !reflect.DeepEqual(d1, d2) {
		t.Fatalf("engine outputs differ across identical calls")
	}
}

func TestBuildHistogram(t *testing.T) {
	s := FeatureSeries{Group: "pop", Feature: dataset.Tempo, Values: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	h := BuildHistogram(s, 5)
	if len(h.Bins) != 5 {
		t.Fatalf("bins = %d, want 5", len(h.Bins))
	}
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	if total != len(s.Values) {
		t.Fatalf("bin counts sum to %d, want %d", total, len(s.Values))
	}
	if h.Bins[4].Count != 3 { // 8, 9 and the closed upper edge 10
		t.Fatalf("last bin = %+v", h.Bins[4])
	}
	if len(h.Density) != kdePoints {
		t.Fatalf("density points = %d", len(h.Density))
	}
	if h.Stats.Median != 5 || h.Stats.Mean != 5 {
		t.Fatalf("stats = %+v", h.Stats)
	}
}

func TestBuildHistogramDegenerate(t *testing.T) {
	empty := BuildHistogram(FeatureSeries{Values: []float64{}}, 0)
	if !empty.Empty() || len(empty.Bins) != 0 {
		t.Fatalf("expected empty histogram, got %+v", empty)
	}
	flat := BuildHistogram(FeatureSeries{Values: []float64{2, 2, 2}}, 10)
	if len(flat.Bins) != 1 || flat.Bins[0].Count != 3 || flat.Density != nil {
		t.Fatalf("flat histogram = %+v", flat)
	}
}

func TestKDEIntegratesToOne(t *testing.T) {
	vals := []float64{1, 2, 2.5, 3, 4, 4.5, 5, 7}
	st := Describe(vals)
	pts := KDE(vals, st, 2000)
	var area float64
	for i := 1; i < len(pts); i++ {
		area += (pts[i].X - pts[i-1].X) * (pts[i].Density + pts[i-1].Density) / 2
	}
	if math.Abs(area-1) > 0.01 {
		t.Fatalf("KDE area = %.4f, want ~1", area)
	}
}
