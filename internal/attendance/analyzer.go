package attendance

import (
	"time"

	"attendx/pkg/contracts/domain"
)

// Analyzer runs the per-file analysis over an in-memory grid.
type Analyzer struct {
	classifier Classifier
	mapper     *ColumnMapper
	counter    *RowCounter
	detector   *TransitionDetector
	labels     []domain.Label
	now        func() time.Time
}

// AnalyzerConfig wires the analysis steps.
type AnalyzerConfig struct {
	Classifier Classifier
	Mapper     *ColumnMapper
	Counter    *RowCounter
	Detector   *TransitionDetector
	// Labels orders the text statistics groups.
	Labels []domain.Label
	Now    func() time.Time
}

// NewAnalyzer creates an analyzer. Labels defaults to DefaultLabels.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	labels := cfg.Labels
	if len(labels) == 0 {
		labels = domain.DefaultLabels
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		classifier: cfg.Classifier,
		mapper:     cfg.Mapper,
		counter:    cfg.Counter,
		detector:   cfg.Detector,
		labels:     labels,
		now:        now,
	}
}

// Analyze maps the header, tallies every row and detects transitions for
// rows that carry a student name.
func (a *Analyzer) Analyze(sourcePath string, grid domain.Grid) domain.FileResult {
	result := domain.FileResult{
		SourcePath:  sourcePath,
		Sheet:       grid.Sheet,
		Days:        a.mapper.Map(grid.HeaderTexts()),
		ProcessedAt: a.now(),
	}

	texts := NewTextCounter()
	for _, row := range grid.Rows {
		result.Tallies = append(result.Tallies, a.counter.Tally(row))

		for _, cell := range row.Cells {
			if cell.Col < a.counter.startCol || cell.Col > a.counter.endCol {
				continue
			}
			texts.Add(a.classifier.Classify(cell.Fill), cell.Text)
		}

		if row.Student() == "" {
			continue
		}
		record := a.record(row, result.Days)
		result.Records = append(result.Records, record)
		result.Transitions = append(result.Transitions, a.detector.Detect(record)...)
	}
	result.TextStats = texts.Statistics(a.labels)

	return result
}

func (a *Analyzer) record(row domain.Row, days domain.DayColumns) domain.StudentRecord {
	record := domain.StudentRecord{Row: row.Index, Student: row.Student()}
	for _, group := range days {
		labels := make([]domain.Label, 0, len(group.Columns))
		for _, col := range group.Columns {
			labels = append(labels, a.classifier.Classify(row.Cell(col).Fill))
		}
		record.Days = append(record.Days, domain.DayLabels{Day: group.Day, Labels: labels})
	}
	return record
}
