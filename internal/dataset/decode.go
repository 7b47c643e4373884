package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// DecodeOptions controls CSV decoding.
type DecodeOptions struct {
	// Delimiter for CSV. If 0, picked from the source name (tab for .tsv, else comma).
	Delimiter rune
	// MaxRows limits rows decoded; 0 means unlimited.
	MaxRows int
}

// Decode reads a CSV table of tracks. Header names are matched
// case-insensitively against the known schema; unknown columns (such as the
// leading unnamed index) are ignored.
func Decode(r io.Reader, source string, opt DecodeOptions) (*Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(source)
	}
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty dataset: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	// strip UTF-8 BOM from the first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	mapping := make([]Column, len(header))
	present := make(map[Column]bool)
	for i, h := range header {
		c, ok := columnForHeader(h)
		if !ok || present[c] {
			continue
		}
		mapping[i] = c
		present[c] = true
	}
	if len(present) == 0 {
		return nil, errors.New("no known columns in header")
	}

	ds := &Dataset{source: source, present: present}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for len(ds.tracks) < maxRows {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(ds.tracks)+1, err)
		}
		t := Track{}
		for i := range t.features {
			t.features[i] = math.NaN()
		}
		for j, c := range mapping {
			if c == "" || j >= len(rec) {
				continue
			}
			t.set(c, strings.TrimSpace(rec[j]))
		}
		ds.tracks = append(ds.tracks, t)
	}
	return ds, nil
}

func sniffDelimiter(source string) rune {
	if strings.EqualFold(filepath.Ext(source), ".tsv") {
		return '\t'
	}
	return ','
}

// parseNumeric accepts plain floats and the boolean spellings used by the
// explicit column.
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	switch strings.ToLower(raw) {
	case "true":
		return 1, true
	case "false":
		return 0, true
	case "nan", "null", "none", "na":
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
