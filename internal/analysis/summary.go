package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/musicdash/internal/dataset"
)

// Summary is a markdown-friendly overview of a loaded dataset.
type Summary struct {
	Source  string          `json:"source"`
	Rows    int             `json:"rows"`
	Cols    []ColumnSummary `json:"columns"`
	Genres  int             `json:"genres"`
	Largest []CategoryCount `json:"largest_genres"`
}

// ColumnSummary captures statistics per column.
type ColumnSummary struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	NonNull int     `json:"non_null"`
	Missing int     `json:"missing"`
	Unique  int     `json:"unique,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
	Std     float64 `json:"std,omitempty"`
}

// CategoryCount is a categorical value with its row count.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// maxUniqueTracked bounds the distinct values counted per categorical column.
const maxUniqueTracked = 200000

// Summarize computes per-column statistics and the largest genres.
func Summarize(ds *dataset.Dataset) *Summary {
	s := &Summary{Source: ds.Source(), Rows: ds.Len()}
	cols := ds.Columns()

	type colAcc struct {
		nonNil, miss int
		n            int
		mean, m2     float64
		min, max     float64
		cats         map[string]int
	}
	accs := make([]*colAcc, len(cols))
	for i, c := range cols {
		accs[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1)}
		if c.IsCategorical() {
			accs[i].cats = make(map[string]int)
		}
	}

	for r := 0; r < ds.Len(); r++ {
		t := ds.At(r)
		for i, c := range cols {
			a := accs[i]
			if c.IsCategorical() {
				v, _ := t.Category(c)
				if v == "" {
					a.miss++
					continue
				}
				a.nonNil++
				if len(a.cats) < maxUniqueTracked {
					a.cats[v]++
				}
				continue
			}
			x, ok := t.Value(c)
			if !ok {
				a.miss++
				continue
			}
			a.nonNil++
			a.n++
			delta := x - a.mean
			a.mean += delta / float64(a.n)
			a.m2 += delta * (x - a.mean)
			if x < a.min {
				a.min = x
			}
			if x > a.max {
				a.max = x
			}
		}
	}

	for i, c := range cols {
		a := accs[i]
		cs := ColumnSummary{Name: string(c), Kind: c.Kind().String(), NonNull: a.nonNil, Missing: a.miss}
		if c.IsCategorical() {
			cs.Unique = len(a.cats)
			if c == dataset.Genre {
				s.Genres = len(a.cats)
				s.Largest = topCounts(a.cats, 8)
			}
		} else if a.n > 0 {
			cs.Min, cs.Max, cs.Mean = a.min, a.max, a.mean
			if a.n > 1 {
				cs.Std = math.Sqrt(a.m2 / float64(a.n-1))
			}
		}
		s.Cols = append(s.Cols, cs)
	}
	return s
}

func topCounts(m map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(m))
	for k, v := range m {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Markdown renders the summary.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", s.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(s.Cols)))
	if s.Genres > 0 {
		b.WriteString(fmt.Sprintf("Genres: %d\n", s.Genres))
	}
	b.WriteString("\n[SCHEMA]\n")
	for _, c := range s.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" | min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			}
		case "categorical":
			b.WriteString(fmt.Sprintf(" | unique=%d", c.Unique))
		}
		b.WriteString("\n")
	}
	if len(s.Largest) > 0 {
		b.WriteString("\n[LARGEST GENRES]\n")
		for _, kv := range s.Largest {
			b.WriteString(fmt.Sprintf("- %s (%d)\n", safeVal(kv.Value), kv.Count))
		}
	}
	return b.String()
}

func safeVal(s string) string {
	if s == "" {
		return "(none)"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
