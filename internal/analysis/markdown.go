package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the ranking as a numbered list.
func (r RankedSummary) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[TOP %d %s BY AVERAGE %s]\n", len(r.Entries), strings.ToUpper(string(r.GroupKey)), strings.ToUpper(string(r.Metric))))
	if r.Empty() {
		b.WriteString("(no groups)\n")
		return b.String()
	}
	for i, e := range r.Entries {
		b.WriteString(fmt.Sprintf("%2d. %s: %.4g (n=%d)\n", i+1, safeVal(e.Group), e.Mean, e.Count))
	}
	return b.String()
}

// Markdown renders per-genre point counts and feature means; raw points are
// only available through JSON output.
func (p Projection) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s VS %s BY GENRE]\n", strings.ToUpper(string(p.X)), strings.ToUpper(string(p.Y))))
	if len(p.Order) == 0 {
		b.WriteString("(no genres selected)\n")
		return b.String()
	}
	for _, g := range p.Order {
		pts := p.Series[g]
		if len(pts) == 0 {
			b.WriteString(fmt.Sprintf("- %s: no tracks\n", safeVal(g)))
			continue
		}
		var sx, sy float64
		for _, pt := range pts {
			sx += pt.X
			sy += pt.Y
		}
		n := float64(len(pts))
		b.WriteString(fmt.Sprintf("- %s: %d tracks, mean %s %.4g, mean %s %.4g\n", safeVal(g), len(pts), p.X, sx/n, p.Y, sy/n))
	}
	return b.String()
}

// Markdown renders the stats and a text bar per bin.
func (h Histogram) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s DISTRIBUTION FOR %s]\n", strings.ToUpper(h.Feature), safeVal(h.Group)))
	if h.Empty() {
		b.WriteString("(no tracks)\n")
		return b.String()
	}
	st := h.Stats
	b.WriteString(fmt.Sprintf("n=%d mean %.4g std %.4g min %.4g median %.4g max %.4g\n\n", st.Count, st.Mean, st.Std, st.Min, st.Median, st.Max))
	peak := 0
	for _, bin := range h.Bins {
		if bin.Count > peak {
			peak = bin.Count
		}
	}
	const barWidth = 40
	for _, bin := range h.Bins {
		w := 0
		if peak > 0 {
			w = bin.Count * barWidth / peak
		}
		b.WriteString(fmt.Sprintf("%10.4g .. %-10.4g | %-*s %d\n", bin.Lo, bin.Hi, barWidth, strings.Repeat("#", w), bin.Count))
	}
	return b.String()
}
