package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attendx/pkg/contracts/domain"
)

func TestSortWeeks(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"numeric", []string{"9", "10", "2"}, []string{"2", "9", "10"}},
		{"duplicates", []string{"3", "3", "1"}, []string{"1", "3"}},
		{"non-numeric last", []string{"b", "10", "a", "2"}, []string{"2", "10", "a", "b"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortWeeks(tt.in))
		})
	}
}

func TestBuildTrend(t *testing.T) {
	stats := []domain.TextStatistic{
		{Week: "10", Class: "7A", Label: domain.LabelRed, Text: "ogiltig", Count: 2},
		{Week: "9", Class: "7A", Label: domain.LabelYellow, Text: "sjuk", Count: 3},
		{Week: "9", Class: "7B", Label: domain.LabelYellow, Text: "feber", Count: 1},
		{Week: "2", Class: "7A", Label: domain.LabelGreen, Text: "5 min", Count: 4},
		{Week: "10", Class: "7B", Label: domain.LabelRed, Text: "ogiltig", Count: 1},
	}

	got := BuildTrend(stats, domain.DefaultLabels)

	assert.Equal(t, []domain.TrendPoint{
		{Week: "2", Label: domain.LabelGreen, Total: 4},
		{Week: "2", Label: domain.LabelYellow, Total: 0},
		{Week: "2", Label: domain.LabelRed, Total: 0},
		{Week: "9", Label: domain.LabelGreen, Total: 0},
		{Week: "9", Label: domain.LabelYellow, Total: 4},
		{Week: "9", Label: domain.LabelRed, Total: 0},
		{Week: "10", Label: domain.LabelGreen, Total: 0},
		{Week: "10", Label: domain.LabelYellow, Total: 0},
		{Week: "10", Label: domain.LabelRed, Total: 3},
	}, got)
}

func TestBuildTrend_Empty(t *testing.T) {
	assert.Empty(t, BuildTrend(nil, nil))
}
