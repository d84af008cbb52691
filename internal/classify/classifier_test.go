package classify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendx/pkg/contracts/domain"
)

func color(r, g, b uint8) *domain.Color {
	c := domain.RGB(r, g, b)
	return &c
}

func TestClassifyDefaultPalette(t *testing.T) {
	c := MustNew(DefaultOptions())

	tests := []struct {
		name  string
		color *domain.Color
		want  domain.Label
	}{
		{"exact green", color(0, 204, 0), domain.LabelGreen},
		{"near green", color(10, 200, 5), domain.LabelGreen},
		{"light green shade", color(146, 208, 80), domain.LabelGreen},
		{"exact yellow", color(255, 255, 51), domain.LabelYellow},
		{"pure yellow", color(255, 255, 0), domain.LabelYellow},
		{"exact red", color(255, 51, 51), domain.LabelRed},
		{"conditional format red", color(255, 199, 206), domain.LabelRed},
		{"blue is far from everything", color(0, 0, 255), domain.LabelNone},
		{"white is far from everything", color(255, 255, 255), domain.LabelNone},
		{"no fill", nil, domain.LabelNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.color))
		})
	}
}

func TestClassifyToleranceIsInclusiveCutoff(t *testing.T) {
	c := MustNew(Options{
		Palette:   Palette{domain.LabelGreen: {domain.RGB(0, 0, 0)}},
		Tolerance: 5,
	})

	label, dist := c.Match(color(3, 4, 0))
	assert.Equal(t, domain.LabelGreen, label)
	assert.InDelta(t, 5.0, dist, 1e-9)

	label, dist = c.Match(color(3, 4, 1))
	assert.Equal(t, domain.LabelNone, label)
	assert.Greater(t, dist, 5.0)
}

func TestClassifyNilColorHasInfiniteDistance(t *testing.T) {
	c := MustNew(DefaultOptions())

	label, dist := c.Match(nil)
	assert.Equal(t, domain.LabelNone, label)
	assert.True(t, math.IsInf(dist, 1))
}

func TestClassifyTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		palette  Palette
		priority []domain.Label
		input    *domain.Color
		want     domain.Label
	}{
		{
			name: "red beats green",
			palette: Palette{
				domain.LabelRed:   {domain.RGB(0, 0, 0)},
				domain.LabelGreen: {domain.RGB(10, 0, 0)},
			},
			priority: DefaultPriority,
			input:    color(5, 0, 0),
			want:     domain.LabelRed,
		},
		{
			name: "green beats yellow",
			palette: Palette{
				domain.LabelGreen:  {domain.RGB(0, 0, 0)},
				domain.LabelYellow: {domain.RGB(0, 10, 0)},
			},
			priority: DefaultPriority,
			input:    color(0, 5, 0),
			want:     domain.LabelGreen,
		},
		{
			name: "custom priority",
			palette: Palette{
				domain.LabelGreen:  {domain.RGB(0, 0, 0)},
				domain.LabelYellow: {domain.RGB(0, 10, 0)},
			},
			priority: []domain.Label{domain.LabelYellow, domain.LabelGreen},
			input:    color(0, 5, 0),
			want:     domain.LabelYellow,
		},
		{
			name: "unranked labels fall back to lexical order",
			palette: Palette{
				domain.Label("purple"): {domain.RGB(0, 10, 0)},
				domain.Label("blue"):   {domain.RGB(0, 0, 10)},
			},
			priority: DefaultPriority,
			input:    color(0, 5, 5),
			want:     domain.Label("blue"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNew(Options{Palette: tt.palette, Tolerance: 40, Priority: tt.priority})
			for i := 0; i < 50; i++ {
				require.Equal(t, tt.want, c.Classify(tt.input))
			}
		})
	}
}

func TestClassifyClosestPaletteWins(t *testing.T) {
	c := MustNew(Options{
		Palette: Palette{
			domain.LabelGreen: {domain.RGB(0, 100, 0), domain.RGB(0, 200, 0)},
			domain.LabelRed:   {domain.RGB(200, 0, 0)},
		},
		Tolerance: 300,
	})

	// the second green shade is closer than the red one
	assert.Equal(t, domain.LabelGreen, c.Classify(color(60, 190, 0)))
	assert.Equal(t, domain.LabelRed, c.Classify(color(180, 40, 0)))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(Options{Palette: Palette{}, Tolerance: 10})
	assert.Error(t, err)

	_, err = New(Options{Palette: DefaultPalette(), Tolerance: -1})
	assert.Error(t, err)

	_, err = New(Options{Palette: Palette{domain.LabelNone: {domain.RGB(1, 2, 3)}}, Tolerance: 1})
	assert.Error(t, err)
}

func TestLabelsFollowPriority(t *testing.T) {
	c := MustNew(DefaultOptions())
	assert.Equal(t, []domain.Label{domain.LabelRed, domain.LabelGreen, domain.LabelYellow}, c.Labels())
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette(map[domain.Label][]string{
		domain.LabelGreen: {"00CC00", "#92d050"},
		domain.LabelRed:   {"FFFF3333"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Color{domain.RGB(0, 204, 0), domain.RGB(146, 208, 80)}, p[domain.LabelGreen])
	assert.Equal(t, []domain.Color{domain.RGB(255, 51, 51)}, p[domain.LabelRed])

	_, err = ParsePalette(map[domain.Label][]string{domain.LabelRed: {"xyz"}})
	assert.Error(t, err)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0.0, Distance(domain.RGB(1, 2, 3), domain.RGB(1, 2, 3)))
	assert.InDelta(t, 5.0, Distance(domain.RGB(0, 0, 0), domain.RGB(3, 4, 0)), 1e-9)
	assert.InDelta(t, math.Sqrt(3*255*255), Distance(domain.RGB(0, 0, 0), domain.RGB(255, 255, 255)), 1e-9)
}
