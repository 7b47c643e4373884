package analysis

import (
	"github.com/KaramelBytes/musicdash/internal/dataset"
)

// Point is one (x, y) pair of a scatter series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projection holds, per selected genre, the rows projected onto two features.
type Projection struct {
	X dataset.Column `json:"x"`
	Y dataset.Column `json:"y"`
	// Order lists the selected genres once each, in selection order.
	Order  []string           `json:"order"`
	Series map[string][]Point `json:"series"`
}

// Empty reports whether there is nothing to plot. Callers should not draw a
// chart for an empty projection.
func (p Projection) Empty() bool {
	for _, pts := range p.Series {
		if len(pts) > 0 {
			return false
		}
	}
	return true
}

// ProjectByGroup restricts rows to the selected genres and emits their
// (x, y) values in row order, one series per selected genre. Rows missing
// either value are skipped. x and y may be the same feature.
func ProjectByGroup(ds *dataset.Dataset, selected []string, x, y dataset.Column) (Projection, error) {
	if err := ds.RequireNumeric(x); err != nil {
		return Projection{}, err
	}
	if err := ds.RequireNumeric(y); err != nil {
		return Projection{}, err
	}
	out := Projection{X: x, Y: y, Series: make(map[string][]Point)}
	if len(selected) == 0 {
		return out, nil
	}
	if err := ds.RequireCategorical(dataset.Genre); err != nil {
		return Projection{}, err
	}

	for _, g := range selected {
		if _, dup := out.Series[g]; dup {
			continue
		}
		out.Order = append(out.Order, g)
		out.Series[g] = []Point{}
	}
	for i := 0; i < ds.Len(); i++ {
		t := ds.At(i)
		pts, ok := out.Series[t.Genre]
		if !ok {
			continue
		}
		xv, okx := t.Value(x)
		yv, oky := t.Value(y)
		if !okx || !oky {
			continue
		}
		out.Series[t.Genre] = append(pts, Point{X: xv, Y: yv})
	}
	return out, nil
}
