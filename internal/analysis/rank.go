package analysis

import (
	"sort"

	"github.com/KaramelBytes/musicdash/internal/dataset"
)

// DefaultTopN is the ranking length used when the caller passes topN <= 0.
const DefaultTopN = 10

// RankEntry is one group of a ranking.
type RankEntry struct {
	Group string  `json:"group"`
	Mean  float64 `json:"mean"`
	// Count is the number of non-missing metric values averaged.
	Count int `json:"count"`
}

// RankedSummary lists groups by descending mean of a metric.
type RankedSummary struct {
	GroupKey dataset.Column `json:"group_key"`
	Metric   dataset.Column `json:"metric"`
	Entries  []RankEntry    `json:"entries"`
}

// Empty reports whether no group had a value for the metric.
func (r RankedSummary) Empty() bool { return len(r.Entries) == 0 }

// RankByMetric groups rows by groupKey, averages metric per group over its
// non-missing values and returns the topN groups by descending mean. Ties
// keep the order in which groups first appear in the dataset.
func RankByMetric(ds *dataset.Dataset, groupKey, metric dataset.Column, topN int) (RankedSummary, error) {
	if err := ds.RequireCategorical(groupKey); err != nil {
		return RankedSummary{}, err
	}
	if err := ds.RequireNumeric(metric); err != nil {
		return RankedSummary{}, err
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	var order []string
	for i := 0; i < ds.Len(); i++ {
		t := ds.At(i)
		key, _ := t.Category(groupKey)
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		if v, ok := t.Value(metric); ok {
			g.sum += v
			g.n++
		}
	}

	entries := make([]RankEntry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if g.n == 0 {
			continue
		}
		entries = append(entries, RankEntry{Group: key, Mean: g.sum / float64(g.n), Count: g.n})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Mean > entries[j].Mean })
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return RankedSummary{GroupKey: groupKey, Metric: metric, Entries: entries}, nil
}
