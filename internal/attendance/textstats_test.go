package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attendx/pkg/contracts/domain"
)

func TestTextCounter_Statistics(t *testing.T) {
	c := NewTextCounter()
	c.Add(domain.LabelRed, "ogiltig")
	c.Add(domain.LabelYellow, "sjuk")
	c.Add(domain.LabelYellow, " sjuk ")
	c.Add(domain.LabelYellow, "feber")
	c.Add(domain.LabelGreen, "10 min")
	c.Add(domain.Label("blue"), "utflykt")
	c.Add(domain.LabelNone, "ignored")
	c.Add(domain.LabelRed, "")

	got := c.Statistics(domain.DefaultLabels)

	assert.Equal(t, []domain.TextStatistic{
		{Label: domain.LabelGreen, Text: "10 min", Count: 1},
		{Label: domain.LabelYellow, Text: "sjuk", Count: 2},
		{Label: domain.LabelYellow, Text: "feber", Count: 1},
		{Label: domain.LabelRed, Text: "ogiltig", Count: 1},
		{Label: "blue", Text: "utflykt", Count: 1},
	}, got)
}

func TestTextCounter_Empty(t *testing.T) {
	assert.Empty(t, NewTextCounter().Statistics(domain.DefaultLabels))
}
