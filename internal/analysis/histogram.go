package analysis

import (
	"math"
)

// DefaultBins matches the dashboard's histogram resolution.
const DefaultBins = 30

// kdePoints is the number of evaluation points of the density curve.
const kdePoints = 200

// Bin is a half-open interval [Lo, Hi) of a histogram; the last bin is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// DensityPoint is one sample of a kernel density estimate.
type DensityPoint struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
}

// Histogram bins a feature series and carries its density curve and stats.
type Histogram struct {
	Group   string         `json:"group"`
	Feature string         `json:"feature"`
	Bins    []Bin          `json:"bins"`
	Density []DensityPoint `json:"density,omitempty"`
	Stats   Stats          `json:"stats"`
}

// Empty reports whether the histogram has no observations.
func (h Histogram) Empty() bool { return h.Stats.Count == 0 }

// BuildHistogram bins s into equal-width bins over [min, max]. A series with
// a single distinct value gets one unit-width bin centred on it. An empty
// series yields a histogram without bins.
func BuildHistogram(s FeatureSeries, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	h := Histogram{Group: s.Group, Feature: string(s.Feature), Bins: []Bin{}, Stats: Describe(s.Values)}
	if h.Stats.Count == 0 {
		return h
	}
	lo, hi := h.Stats.Min, h.Stats.Max
	if lo == hi {
		h.Bins = append(h.Bins, Bin{Lo: lo - 0.5, Hi: hi + 0.5, Count: h.Stats.Count})
		return h
	}
	width := (hi - lo) / float64(bins)
	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i] = Bin{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	h.Bins[bins-1].Hi = hi
	for _, v := range s.Values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Bins[idx].Count++
	}
	h.Density = KDE(s.Values, h.Stats, kdePoints)
	return h
}

// KDE evaluates a Gaussian kernel density estimate with Scott's bandwidth at
// n points spanning [min-3h, max+3h]. It returns nil when the bandwidth is
// degenerate (fewer than two observations or zero spread).
func KDE(values []float64, st Stats, n int) []DensityPoint {
	if st.Count < 2 || st.Std == 0 || n < 2 {
		return nil
	}
	bw := st.Std * math.Pow(float64(st.Count), -0.2)
	start := st.Min - 3*bw
	step := (st.Max + 3*bw - start) / float64(n-1)
	norm := 1 / (float64(st.Count) * bw * math.Sqrt(2*math.Pi))
	out := make([]DensityPoint, n)
	for i := range out {
		x := start + float64(i)*step
		var sum float64
		for _, v := range values {
			z := (x - v) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		out[i] = DensityPoint{X: x, Density: sum * norm}
	}
	return out
}
