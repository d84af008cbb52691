package classify

import (
	"fmt"
	"math"
	"sort"

	"attendx/pkg/contracts/domain"
)

// DefaultTolerance is the maximum RGB distance accepted as a match.
const DefaultTolerance = 40.0

// DefaultPriority resolves exact distance ties between labels.
var DefaultPriority = []domain.Label{domain.LabelRed, domain.LabelGreen, domain.LabelYellow}

// Palette maps each label to its calibrated reference colours.
type Palette map[domain.Label][]domain.Color

// DefaultPalette returns the calibrated shades used when no palette is configured.
func DefaultPalette() Palette {
	return Palette{
		domain.LabelGreen: {
			domain.RGB(0, 204, 0),
			domain.RGB(0, 255, 0),
			domain.RGB(146, 208, 80),
		},
		domain.LabelYellow: {
			domain.RGB(255, 255, 51),
			domain.RGB(255, 255, 0),
			domain.RGB(255, 242, 0),
			domain.RGB(255, 235, 156),
		},
		domain.LabelRed: {
			domain.RGB(255, 51, 51),
			domain.RGB(255, 0, 0),
			domain.RGB(230, 92, 92),
			domain.RGB(255, 102, 102),
			domain.RGB(255, 199, 206),
		},
	}
}

// ParsePalette builds a palette from hex strings per label.
func ParsePalette(hex map[domain.Label][]string) (Palette, error) {
	p := make(Palette, len(hex))
	for label, values := range hex {
		for _, v := range values {
			c, err := domain.ParseHexColor(v)
			if err != nil {
				return nil, fmt.Errorf("palette %s: %w", label, err)
			}
			p[label] = append(p[label], c)
		}
	}
	return p, nil
}

// Options configures a Classifier.
type Options struct {
	Palette   Palette
	Tolerance float64
	// Priority decides exact ties; earlier wins. Labels missing from the list
	// rank after it in lexical order.
	Priority []domain.Label
}

// DefaultOptions returns the default palette, tolerance and tie-break order.
func DefaultOptions() Options {
	return Options{
		Palette:   DefaultPalette(),
		Tolerance: DefaultTolerance,
		Priority:  DefaultPriority,
	}
}

// Classifier maps fill colours to labels by nearest palette entry within a
// tolerance. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	order     []domain.Label
	palette   Palette
	tolerance float64
}

// New validates the options and returns a Classifier.
func New(opts Options) (*Classifier, error) {
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative: %v", opts.Tolerance)
	}
	if len(opts.Palette) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}

	palette := make(Palette, len(opts.Palette))
	for label, colors := range opts.Palette {
		if label == domain.LabelNone {
			return nil, fmt.Errorf("palette contains the empty label")
		}
		if len(colors) == 0 {
			continue
		}
		palette[label] = append([]domain.Color(nil), colors...)
	}

	return &Classifier{
		order:     rankLabels(palette, opts.Priority),
		palette:   palette,
		tolerance: opts.Tolerance,
	}, nil
}

// MustNew is New for static configurations; it panics on error.
func MustNew(opts Options) *Classifier {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Labels returns the classifiable labels in tie-break order.
func (c *Classifier) Labels() []domain.Label {
	return append([]domain.Label(nil), c.order...)
}

// Tolerance returns the configured cutoff distance.
func (c *Classifier) Tolerance() float64 {
	return c.tolerance
}

// Classify returns the label whose palette holds the closest colour, or
// LabelNone when color is nil or every palette is farther than the tolerance.
func (c *Classifier) Classify(color *domain.Color) domain.Label {
	label, _ := c.Match(color)
	return label
}

// Match is Classify that also returns the winning distance. The distance is
// +Inf when color is nil.
func (c *Classifier) Match(color *domain.Color) (domain.Label, float64) {
	if color == nil {
		return domain.LabelNone, math.Inf(1)
	}

	best := domain.LabelNone
	bestDist := math.Inf(1)
	for _, label := range c.order {
		d := closest(*color, c.palette[label])
		// strict comparison keeps the earlier label on exact ties
		if d < bestDist {
			best, bestDist = label, d
		}
	}

	if bestDist > c.tolerance {
		return domain.LabelNone, bestDist
	}
	return best, bestDist
}

// Distance is the Euclidean distance between two colours in RGB space.
func Distance(a, b domain.Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func closest(c domain.Color, palette []domain.Color) float64 {
	best := math.Inf(1)
	for _, p := range palette {
		if d := Distance(c, p); d < best {
			best = d
		}
	}
	return best
}

func rankLabels(palette Palette, priority []domain.Label) []domain.Label {
	order := make([]domain.Label, 0, len(palette))
	seen := make(map[domain.Label]bool, len(palette))
	for _, l := range priority {
		if _, ok := palette[l]; ok && !seen[l] {
			order = append(order, l)
			seen[l] = true
		}
	}

	var rest []domain.Label
	for l := range palette {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	return append(order, rest...)
}
