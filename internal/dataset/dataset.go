// Package dataset loads the tracks table once and exposes it read-only.
package dataset

import (
	"math"
)

// Track is one row of the dataset. Missing numeric cells hold NaN.
type Track struct {
	Genre     string
	TrackID   string
	Artists   string
	AlbumName string
	TrackName string

	features [numFeatures]float64
}

// NewTrack builds a track from a genre and numeric values; unset features are missing.
func NewTrack(genre string, values map[Column]float64) Track {
	t := Track{Genre: genre}
	for i := range t.features {
		t.features[i] = math.NaN()
	}
	for c, v := range values {
		if slot, ok := numericSlot[c]; ok {
			t.features[slot] = v
		}
	}
	return t
}

// Value returns the numeric value of c. ok is false for non-numeric columns
// and missing cells.
func (t Track) Value(c Column) (v float64, ok bool) {
	slot, found := numericSlot[c]
	if !found {
		return 0, false
	}
	v = t.features[slot]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Category returns the value of a categorical column.
func (t Track) Category(c Column) (string, bool) {
	switch c {
	case Genre:
		return t.Genre, true
	case TrackID:
		return t.TrackID, true
	case Artists:
		return t.Artists, true
	case AlbumName:
		return t.AlbumName, true
	case TrackName:
		return t.TrackName, true
	default:
		return "", false
	}
}

func (t *Track) set(c Column, raw string) {
	switch c {
	case Genre:
		t.Genre = raw
	case TrackID:
		t.TrackID = raw
	case Artists:
		t.Artists = raw
	case AlbumName:
		t.AlbumName = raw
	case TrackName:
		t.TrackName = raw
	default:
		if slot, ok := numericSlot[c]; ok {
			if v, ok := parseNumeric(raw); ok {
				t.features[slot] = v
			}
		}
	}
}

// Dataset is an ordered, immutable collection of tracks.
type Dataset struct {
	source  string
	tracks  []Track
	present map[Column]bool
}

// New wraps tracks into a Dataset. When present is empty every known column
// is considered part of the schema.
func New(source string, tracks []Track, present ...Column) *Dataset {
	if len(present) == 0 {
		present = AllColumns()
	}
	m := make(map[Column]bool, len(present))
	for _, c := range present {
		m[c] = true
	}
	cp := make([]Track, len(tracks))
	copy(cp, tracks)
	return &Dataset{source: source, tracks: cp, present: m}
}

// Source is the location the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Len returns the number of tracks.
func (d *Dataset) Len() int { return len(d.tracks) }

// At returns a copy of the i-th track.
func (d *Dataset) At(i int) Track { return d.tracks[i] }

// Has reports whether c was present in the source header.
func (d *Dataset) Has(c Column) bool { return d.present[c] }

// Columns lists the schema columns present in the dataset.
func (d *Dataset) Columns() []Column {
	var out []Column
	for _, c := range AllColumns() {
		if d.present[c] {
			out = append(out, c)
		}
	}
	return out
}

// RequireNumeric fails with InvalidColumnError unless c is a numeric column of d.
func (d *Dataset) RequireNumeric(c Column) error {
	if !c.IsNumeric() {
		return &InvalidColumnError{Column: string(c), Reason: "not a numeric column"}
	}
	if !d.present[c] {
		return &InvalidColumnError{Column: string(c), Reason: "missing from dataset"}
	}
	return nil
}

// RequireCategorical fails with InvalidColumnError unless c is a categorical column of d.
func (d *Dataset) RequireCategorical(c Column) error {
	if !c.IsCategorical() {
		return &InvalidColumnError{Column: string(c), Reason: "not a categorical column"}
	}
	if !d.present[c] {
		return &InvalidColumnError{Column: string(c), Reason: "missing from dataset"}
	}
	return nil
}

// Genres returns the distinct non-empty genres in order of first occurrence.
func (d *Dataset) Genres() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range d.tracks {
		g := d.tracks[i].Genre
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
