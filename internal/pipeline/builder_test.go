package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendx/internal/config"
	"attendx/pkg/contracts/domain"
)

func TestBuild_Defaults(t *testing.T) {
	c, err := Build(config.Default())
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultLabels, c.Labels)
	assert.Equal(t, 1, c.Layout.HeaderRow)
	assert.Equal(t, 30, c.Layout.EndCol)
	assert.Equal(t, 31, c.Layout.OutputCol)
	assert.Equal(t, 40.0, c.Classifier.Tolerance())
	assert.Equal(t, []domain.TransitionKind{
		{From: domain.LabelYellow, To: domain.LabelRed},
		{From: domain.LabelGreen, To: domain.LabelRed},
	}, c.Transitions)

	assert.Equal(t, domain.LabelRed, c.Classifier.Classify(&domain.Color{R: 255}))
	assert.Equal(t, domain.LabelNone, c.Classifier.Classify(nil))
}

func TestBuild_CustomPaletteAddsLabels(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Palette = map[string][]string{
		"Green": {"00CC00"},
		"red":   {"FF0000"},
		"blue":  {"0000FF"},
	}
	cfg.Classifier.Priority = []string{"blue", "red", "green"}

	c, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, []domain.Label{domain.LabelGreen, domain.LabelYellow, domain.LabelRed, "blue"}, c.Labels)
	assert.Equal(t, domain.Label("blue"), c.Classifier.Classify(&domain.Color{B: 250}))
	assert.Equal(t, domain.LabelNone, c.Classifier.Classify(&domain.Color{R: 255, G: 255}), "yellow not in palette")
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad hex", func(c *config.Config) { c.Classifier.Palette = map[string][]string{"red": {"zz"}} }},
		{"empty palette label", func(c *config.Config) { c.Classifier.Palette = map[string][]string{"none": {"FF0000"}} }},
		{"bad transition", func(c *config.Config) { c.Transitions = []string{"yellow-red"} }},
		{"duplicate transition", func(c *config.Config) { c.Transitions = []string{"yellow>red", "yellow>red"} }},
		{"bad day keyword", func(c *config.Config) { c.Days = []string{"monday"} }},
		{"negative tolerance", func(c *config.Config) { c.Classifier.Tolerance = -1 }},
		{"output inside scan", func(c *config.Config) { c.Scan.OutputCol = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, err := Build(cfg)
			assert.Error(t, err)
		})
	}
}

func TestBuild_CustomDays(t *testing.T) {
	cfg := config.Default()
	cfg.Days = []string{"lun=Monday", "mar=Tuesday"}

	c, err := Build(cfg)
	require.NoError(t, err)

	result := c.Analyzer.Analyze("7A_v1.xlsx", domain.Grid{
		StartCol: 1,
		EndCol:   4,
		Header: []domain.Cell{
			{Row: 1, Col: 1, Text: "Nom"},
			{Row: 1, Col: 2, Text: "Lundi"},
			{Row: 1, Col: 3},
			{Row: 1, Col: 4, Text: "Mardi"},
		},
	})
	require.Len(t, result.Days, 2)
	assert.Equal(t, []int{2, 3}, result.Days.Columns("Monday"))
	assert.Equal(t, []int{4}, result.Days.Columns("Tuesday"))
}
