package attendance

import (
	"strings"

	"attendx/pkg/contracts/domain"
)

// Classifier maps an optional fill colour to a label.
type Classifier interface {
	Classify(color *domain.Color) domain.Label
}

// RowCounter tallies labels over a fixed, inclusive column range.
type RowCounter struct {
	classifier Classifier
	startCol   int
	endCol     int
}

// NewRowCounter creates a counter for columns startCol..endCol (1-based).
func NewRowCounter(classifier Classifier, startCol, endCol int) *RowCounter {
	return &RowCounter{classifier: classifier, startCol: startCol, endCol: endCol}
}

// Tally classifies every cell of the row within the range. Cells outside the
// range are ignored, so unrelated columns never affect the counts.
func (c *RowCounter) Tally(row domain.Row) domain.RowTally {
	tally := domain.RowTally{
		Row:     row.Index,
		Student: row.Student(),
		Counts:  make(map[domain.Label]int),
	}

	for _, cell := range row.Cells {
		if cell.Col < c.startCol || cell.Col > c.endCol {
			continue
		}
		if strings.TrimSpace(cell.Text) != "" {
			tally.HasData = true
		}
		if label := c.classifier.Classify(cell.Fill); label != domain.LabelNone {
			tally.Counts[label]++
		}
	}

	return tally
}
