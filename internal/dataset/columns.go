package dataset

import (
	"strings"
)

// Column identifies a known column of the tracks dataset.
type Column string

// Categorical columns.
const (
	Genre     Column = "genre"
	TrackID   Column = "track_id"
	Artists   Column = "artists"
	AlbumName Column = "album_name"
	TrackName Column = "track_name"
)

// Numeric columns. Explicit is stored as 0/1.
const (
	Popularity       Column = "popularity"
	DurationMs       Column = "duration_ms"
	Explicit         Column = "explicit"
	Danceability     Column = "danceability"
	Energy           Column = "energy"
	Key              Column = "key"
	Loudness         Column = "loudness"
	Mode             Column = "mode"
	Speechiness      Column = "speechiness"
	Acousticness     Column = "acousticness"
	Instrumentalness Column = "instrumentalness"
	Liveness         Column = "liveness"
	Valence          Column = "valence"
	Tempo            Column = "tempo"
	TimeSignature    Column = "time_signature"
)

// Kind is the value type of a column.
type Kind int

const (
	KindUnknown Kind = iota
	KindCategorical
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

var categoricalColumns = []Column{Genre, TrackID, Artists, AlbumName, TrackName}

// numericColumns fixes the slot of every numeric feature inside Track.
var numericColumns = []Column{
	Popularity, DurationMs, Explicit, Danceability, Energy, Key, Loudness, Mode,
	Speechiness, Acousticness, Instrumentalness, Liveness, Valence, Tempo, TimeSignature,
}

const numFeatures = 15

var numericSlot = func() map[Column]int {
	m := make(map[Column]int, len(numericColumns))
	for i, c := range numericColumns {
		m[c] = i
	}
	return m
}()

// headerAliases maps lower-cased CSV header names to columns.
var headerAliases = map[string]Column{
	"track_genre": Genre,
	"genre":       Genre,
}

// Kind reports whether c is categorical, numeric or unknown.
func (c Column) Kind() Kind {
	if _, ok := numericSlot[c]; ok {
		return KindNumeric
	}
	for _, cc := range categoricalColumns {
		if cc == c {
			return KindCategorical
		}
	}
	return KindUnknown
}

func (c Column) IsNumeric() bool     { return c.Kind() == KindNumeric }
func (c Column) IsCategorical() bool { return c.Kind() == KindCategorical }

// Label returns a capitalized display label, e.g. "Danceability".
func (c Column) Label() string {
	s := strings.ReplaceAll(string(c), "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseColumn maps a user-supplied name onto a known column.
func ParseColumn(name string) (Column, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := headerAliases[n]; ok {
		return c, nil
	}
	c := Column(n)
	if c.Kind() == KindUnknown {
		return "", &InvalidColumnError{Column: name, Reason: "not part of the dataset schema"}
	}
	return c, nil
}

// ParseNumericColumn is ParseColumn restricted to numeric columns.
func ParseNumericColumn(name string) (Column, error) {
	c, err := ParseColumn(name)
	if err != nil {
		return "", err
	}
	if !c.IsNumeric() {
		return "", &InvalidColumnError{Column: name, Reason: "not a numeric column"}
	}
	return c, nil
}

// AllColumns returns every known column, categorical first.
func AllColumns() []Column {
	out := make([]Column, 0, len(categoricalColumns)+len(numericColumns))
	out = append(out, categoricalColumns...)
	return append(out, numericColumns...)
}

// NumericColumns returns the numeric columns in schema order.
func NumericColumns() []Column {
	out := make([]Column, len(numericColumns))
	copy(out, numericColumns)
	return out
}

func columnForHeader(h string) (Column, bool) {
	n := strings.ToLower(strings.TrimSpace(h))
	if c, ok := headerAliases[n]; ok {
		return c, true
	}
	c := Column(n)
	return c, c.Kind() != KindUnknown
}
