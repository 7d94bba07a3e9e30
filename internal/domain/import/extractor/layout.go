package extractor

import (
	"math"
	"sort"
	"strings"
)

// Fragment is a run of text placed at (X, Y) on a page, with Y growing
// upwards from the bottom edge.
type Fragment struct {
	Text string
	X    float64
	Y    float64
}

// ReconstructLines restores reading order for one page. Fragments sharing a
// rounded Y form a line; lines run top to bottom and fragments left to
// right, joined by single spaces.
func ReconstructLines(fragments []Fragment) []string {
	byLine := make(map[int][]Fragment)
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		y := int(math.Round(f.Y))
		byLine[y] = append(byLine[y], f)
	}

	ys := make([]int, 0, len(byLine))
	for y := range byLine {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		frags := byLine[y]
		sort.SliceStable(frags, func(i, j int) bool { return frags[i].X < frags[j].X })
		parts := make([]string, 0, len(frags))
		for _, f := range frags {
			parts = append(parts, strings.TrimSpace(f.Text))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

// ReconstructText joins the lines of every page with newlines.
func ReconstructText(pages [][]Fragment) string {
	var all []string
	for _, page := range pages {
		all = append(all, ReconstructLines(page)...)
	}
	return strings.Join(all, "\n")
}

// Glyph is a single positioned character as emitted by a PDF content
// stream.
type Glyph struct {
	Text     string
	X, Y     float64
	Width    float64
	FontSize float64
}

// CoalesceGlyphs merges glyphs that sit on the same baseline and touch each
// other into word-level fragments. A horizontal gap wider than a quarter of
// the font size, a baseline change or an explicit blank ends a fragment.
func CoalesceGlyphs(glyphs []Glyph) []Fragment {
	var (
		out     []Fragment
		current strings.Builder
		start   Glyph
		endX    float64
		open    bool
	)

	flush := func() {
		if open && strings.TrimSpace(current.String()) != "" {
			out = append(out, Fragment{Text: current.String(), X: start.X, Y: start.Y})
		}
		current.Reset()
		open = false
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) == "" {
			flush()
			continue
		}
		tolerance := g.FontSize * 0.25
		if tolerance <= 0 {
			tolerance = 1
		}
		sameLine := open && math.Round(g.Y) == math.Round(start.Y)
		adjacent := sameLine && g.X >= endX-tolerance && g.X-endX <= tolerance
		if !adjacent {
			flush()
			start = g
			open = true
		}
		current.WriteString(g.Text)
		endX = g.X + g.Width
	}
	flush()
	return out
}
