package pipeline

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"attendx/internal/attendance"
	"attendx/internal/classify"
	"attendx/internal/config"
	"attendx/internal/workbook"
	"attendx/pkg/contracts/domain"
)

// Components are the configured analysis steps shared by every mode.
type Components struct {
	Classifier  *classify.Classifier
	Analyzer    *attendance.Analyzer
	Layout      workbook.Layout
	Labels      []domain.Label
	// Transitions are the watched kinds, in configuration order.
	Transitions []domain.TransitionKind
}

// Build turns the configuration into a classifier, analyzer and sheet layout.
func Build(cfg *config.Config) (*Components, error) {
	opts := classify.DefaultOptions()
	opts.Tolerance = cfg.Classifier.Tolerance

	if len(cfg.Classifier.Palette) > 0 {
		hex := make(map[domain.Label][]string, len(cfg.Classifier.Palette))
		for name, values := range cfg.Classifier.Palette {
			label, err := domain.ParseLabel(name)
			if err != nil {
				return nil, fmt.Errorf("palette %q: %w", name, err)
			}
			hex[label] = append(hex[label], values...)
		}
		palette, err := classify.ParsePalette(hex)
		if err != nil {
			return nil, err
		}
		opts.Palette = palette
	}

	if len(cfg.Classifier.Priority) > 0 {
		priority, err := parseLabels(cfg.Classifier.Priority)
		if err != nil {
			return nil, fmt.Errorf("priority: %w", err)
		}
		opts.Priority = priority
	}

	classifier, err := classify.New(opts)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	keywords := attendance.DefaultDayKeywords()
	if len(cfg.Days) > 0 {
		if keywords, err = attendance.ParseDayKeywords(cfg.Days); err != nil {
			return nil, err
		}
	}

	kinds, err := attendance.ParseTransitions(cfg.Transitions)
	if err != nil {
		return nil, err
	}
	detector, err := attendance.NewTransitionDetector(kinds)
	if err != nil {
		return nil, err
	}

	labels := countLabels(opts.Palette)
	layout := workbook.Layout{
		HeaderRow: cfg.Scan.HeaderRow,
		StartCol:  cfg.Scan.StartCol,
		EndCol:    cfg.Scan.EndCol,
		OutputCol: cfg.Scan.OutputCol,
		Labels:    labels,
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	analyzer := attendance.NewAnalyzer(attendance.AnalyzerConfig{
		Classifier: classifier,
		Mapper:     attendance.NewColumnMapper(keywords, layout.StartCol),
		Counter:    attendance.NewRowCounter(classifier, layout.StartCol, layout.EndCol),
		Detector:   detector,
		Labels:     labels,
	})

	return &Components{
		Classifier:  classifier,
		Analyzer:    analyzer,
		Layout:      layout,
		Labels:      labels,
		Transitions: detector.Watched(),
	}, nil
}

// countLabels keeps the built-in column order and appends any extra palette
// labels alphabetically.
func countLabels(palette classify.Palette) []domain.Label {
	labels := append([]domain.Label(nil), domain.DefaultLabels...)
	extra := lo.Filter(lo.Keys(palette), func(l domain.Label, _ int) bool {
		return !lo.Contains(domain.DefaultLabels, l)
	})
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(labels, extra...)
}

func parseLabels(names []string) ([]domain.Label, error) {
	labels := make([]domain.Label, 0, len(names))
	for _, name := range names {
		label, err := domain.ParseLabel(name)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}
