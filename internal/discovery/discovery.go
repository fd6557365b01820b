// Package discovery finds a score readout already rendered on a page and
// follows it as it changes.
//
// A readout is the first "N / M" in an element's rendered text, with M at
// most MaxDenominator. Readings where N exceeds M, such as a bonus "11/10",
// are ignored: a page showing one is not treated as a score display.
package discovery

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/linnington/esheets-assets/internal/dom"
)

// DefaultSelectors are probed in order before falling back to a full walk.
var DefaultSelectors = []string{
	"[data-esheet-score]",
	"#score",
	".score",
	"#scoreText",
	".score-text",
	"#scoreDisplay",
	".score-display",
	"#result",
	".result",
}

const (
	DefaultMaxElements        = 5000
	DefaultInteractivePenalty = 1000

	minTextLength = 3
	maxTextLength = 80
)

// Candidate is an element whose text parsed as a score.
type Candidate struct {
	Element     dom.Element
	Pair        Pair
	Text        string
	Interactive bool
	// Selector is the probe that matched, or empty when the candidate came
	// from the full walk.
	Selector string
}

// RankFunc scores a walk candidate. Lower ranks win; equal ranks keep
// document order, except that among equal ranks with identical text the
// innermost element is chosen.
type RankFunc func(Candidate) int

// Finder locates the score element on a page.
type Finder struct {
	Selectors          []string
	MaxDenominator     int
	MaxElements        int
	InteractivePenalty int
	// Rank overrides the default penalty-then-length ranking.
	Rank RankFunc
}

// NewFinder returns a Finder with the default probes and bounds.
func NewFinder() *Finder {
	return &Finder{
		Selectors:          DefaultSelectors,
		MaxDenominator:     DefaultMaxDenominator,
		MaxElements:        DefaultMaxElements,
		InteractivePenalty: DefaultInteractivePenalty,
	}
}

// DefaultRank penalizes candidates holding form controls, then prefers
// shorter text, counted in characters.
func (f *Finder) DefaultRank(c Candidate) int {
	rank := utf8.RuneCountInString(c.Text)
	if c.Interactive {
		rank += f.InteractivePenalty
	}
	return rank
}

// Find returns the best score candidate on page. Not finding one is not an
// error; query failures are treated as no match.
func (f *Finder) Find(page dom.Page) (Candidate, bool) {
	if c, ok := f.probe(page); ok {
		return c, true
	}
	return f.walk(page)
}

func (f *Finder) probe(page dom.Page) (Candidate, bool) {
	for _, sel := range f.Selectors {
		els, err := page.Query(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if !el.Visible() {
				continue
			}
			text := el.Text()
			pair, ok := ParseScore(text, f.MaxDenominator)
			if !ok {
				continue
			}
			return Candidate{Element: el, Pair: pair, Text: text, Selector: sel}, true
		}
	}
	return Candidate{}, false
}

func (f *Finder) walk(page dom.Page) (Candidate, bool) {
	limit := f.MaxElements
	if limit <= 0 {
		limit = DefaultMaxElements
	}
	els, err := page.Elements(limit)
	if err != nil {
		return Candidate{}, false
	}

	var candidates []Candidate
	for _, el := range els {
		text := el.Text()
		if n := utf8.RuneCountInString(text); n < minTextLength || n > maxTextLength {
			continue
		}
		if !strings.Contains(strings.ToLower(text), "score") {
			continue
		}
		pair, ok := ParseScore(text, f.MaxDenominator)
		if !ok {
			continue
		}
		if !el.Visible() {
			continue
		}
		candidates = append(candidates, Candidate{
			Element:     el,
			Pair:        pair,
			Text:        text,
			Interactive: el.ContainsInteractive(),
		})
	}
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	rank := f.Rank
	if rank == nil {
		rank = f.DefaultRank
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return rank(candidates[i]) < rank(candidates[j])
	})

	// Wrappers share their only child's text and rank; a descendant follows
	// its ancestors in document order, so the last such tie is the innermost.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if rank(c) != rank(best) || c.Text != best.Text {
			break
		}
		best = c
	}
	return best, true
}

// Watch re-parses c's element after every change and passes readings that
// parse to onScore. Changes whose text no longer parses are skipped.
func (f *Finder) Watch(page dom.Page, c Candidate, onScore func(Pair)) (dom.Subscription, error) {
	return page.Observe(c.Element, func() {
		if pair, ok := ParseScore(c.Element.Text(), f.MaxDenominator); ok {
			onScore(pair)
		}
	})
}
