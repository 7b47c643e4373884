package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/musicdash/internal/dataset"
)

// FeatureSeries is one feature's values for the rows of a single genre.
type FeatureSeries struct {
	Group   string         `json:"group"`
	Feature dataset.Column `json:"feature"`
	Values  []float64      `json:"values"`
}

// Empty reports whether the genre matched no rows with a value.
func (s FeatureSeries) Empty() bool { return len(s.Values) == 0 }

// FeatureDistribution returns feature values, in row order, for rows whose
// genre equals group. A genre without rows yields an empty series.
func FeatureDistribution(ds *dataset.Dataset, group string, feature dataset.Column) (FeatureSeries, error) {
	if err := ds.RequireNumeric(feature); err != nil {
		return FeatureSeries{}, err
	}
	if err := ds.RequireCategorical(dataset.Genre); err != nil {
		return FeatureSeries{}, err
	}
	out := FeatureSeries{Group: group, Feature: feature, Values: []float64{}}
	for i := 0; i < ds.Len(); i++ {
		t := ds.At(i)
		if t.Genre != group {
			continue
		}
		if v, ok := t.Value(feature); ok {
			out.Values = append(out.Values, v)
		}
	}
	return out, nil
}

// Stats are descriptive statistics of a numeric series.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Describe computes Stats with Welford's update; Std is the sample deviation.
func Describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var m2 float64
	for _, x := range values {
		s.Count++
		delta := x - s.Mean
		s.Mean += delta / float64(s.Count)
		m2 += delta * (x - s.Mean)
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
	}
	if s.Count > 1 {
		s.Std = math.Sqrt(m2 / float64(s.Count-1))
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	s.Median = quantile(cp, 0.5)
	return s
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
