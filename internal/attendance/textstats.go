package attendance

import (
	"sort"
	"strings"

	"attendx/pkg/contracts/domain"
)

// TextCounter accumulates (label, text) occurrences for one file.
type TextCounter struct {
	counts map[domain.Label]map[string]int
}

// NewTextCounter returns an empty counter.
func NewTextCounter() *TextCounter {
	return &TextCounter{counts: make(map[domain.Label]map[string]int)}
}

// Add records one classified cell. Unclassified cells and empty text are ignored.
func (t *TextCounter) Add(label domain.Label, text string) {
	text = strings.TrimSpace(text)
	if label == domain.LabelNone || text == "" {
		return
	}
	byText, ok := t.counts[label]
	if !ok {
		byText = make(map[string]int)
		t.counts[label] = byText
	}
	byText[text]++
}

// Statistics returns the counts grouped by label in the given order, each
// group sorted by count descending then text. Labels not in order follow in
// lexical order.
func (t *TextCounter) Statistics(order []domain.Label) []domain.TextStatistic {
	labels := append([]domain.Label(nil), order...)
	listed := make(map[domain.Label]bool, len(order))
	for _, l := range order {
		listed[l] = true
	}
	var extra []domain.Label
	for l := range t.counts {
		if !listed[l] {
			extra = append(extra, l)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	labels = append(labels, extra...)

	var stats []domain.TextStatistic
	for _, l := range labels {
		group := make([]domain.TextStatistic, 0, len(t.counts[l]))
		for text, n := range t.counts[l] {
			group = append(group, domain.TextStatistic{Label: l, Text: text, Count: n})
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Count != group[j].Count {
				return group[i].Count > group[j].Count
			}
			return group[i].Text < group[j].Text
		})
		stats = append(stats, group...)
	}
	return stats
}
