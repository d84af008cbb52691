package summary

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"attendx/internal/attendance"
	"attendx/pkg/contracts/domain"
)

// IngestReport describes what one Ingest call changed.
type IngestReport struct {
	Key       domain.FileKey
	Rows      int
	Replaced  int
	TextStats int
}

// Store is the in-memory state of the summary workbook: student rows per
// week and the global text statistics table. It is not safe for concurrent
// use; the pipeline mutates it from one goroutine.
type Store struct {
	labels []domain.Label
	weeks  map[string][]domain.SummaryRow
	stats  []domain.TextStatistic
}

// NewStore creates an empty store. labels orders the count columns.
func NewStore(labels []domain.Label) *Store {
	if len(labels) == 0 {
		labels = domain.DefaultLabels
	}
	return &Store{
		labels: append([]domain.Label(nil), labels...),
		weeks:  make(map[string][]domain.SummaryRow),
	}
}

// Labels returns the count column order.
func (s *Store) Labels() []domain.Label {
	return append([]domain.Label(nil), s.labels...)
}

// Ingest derives the class and week from the result's source file name and
// folds the result into the store. Rows and text statistics previously
// ingested for the same (week, class) are replaced, so re-ingesting a file
// never duplicates students. A name that does not carry a class and week
// returns an error wrapping ErrFilenamePattern and leaves the store untouched.
func (s *Store) Ingest(result domain.FileResult) (IngestReport, error) {
	key, err := attendance.ParseFileKey(result.SourcePath)
	if err != nil {
		return IngestReport{}, err
	}
	return s.IngestKey(key, result), nil
}

// IngestKey folds the result under an explicit key.
func (s *Store) IngestKey(key domain.FileKey, result domain.FileResult) IngestReport {
	report := IngestReport{Key: key}

	rows := s.studentRows(key, result.Tallies)
	kept := lo.Reject(s.weeks[key.Week], func(r domain.SummaryRow, _ int) bool {
		return r.Class == key.Class
	})
	report.Replaced = len(s.weeks[key.Week]) - len(kept)
	s.weeks[key.Week] = append(kept, rows...)
	report.Rows = len(rows)

	s.stats = lo.Reject(s.stats, func(t domain.TextStatistic, _ int) bool {
		return t.Week == key.Week && t.Class == key.Class
	})
	for _, t := range result.TextStats {
		if t.Text == "" || t.Count <= 0 {
			continue
		}
		t.Week, t.Class = key.Week, key.Class
		s.stats = append(s.stats, t)
		report.TextStats++
	}

	return report
}

// studentRows builds one row per named student. A name that appears twice in
// the same file is merged into its first row.
func (s *Store) studentRows(key domain.FileKey, tallies []domain.RowTally) []domain.SummaryRow {
	var rows []domain.SummaryRow
	index := make(map[string]int)
	for _, t := range tallies {
		student := strings.TrimSpace(t.Student)
		if student == "" {
			continue
		}
		pos, ok := index[student]
		if !ok {
			pos = len(rows)
			index[student] = pos
			rows = append(rows, domain.SummaryRow{
				Week:    key.Week,
				Class:   key.Class,
				Student: student,
				Counts:  make(map[domain.Label]int, len(s.labels)),
			})
		}
		for label, n := range t.Counts {
			rows[pos].Counts[label] += n
		}
	}
	return rows
}

// Weeks returns the weeks that hold at least one row, in numeric order.
func (s *Store) Weeks() []string {
	weeks := make([]string, 0, len(s.weeks))
	for w, rows := range s.weeks {
		if len(rows) > 0 {
			weeks = append(weeks, w)
		}
	}
	return SortWeeks(weeks)
}

// Rows returns a copy of the week's rows in insertion order.
func (s *Store) Rows(week string) []domain.SummaryRow {
	return append([]domain.SummaryRow(nil), s.weeks[week]...)
}

// TextStatistics returns a copy of the global text statistics table.
func (s *Store) TextStatistics() []domain.TextStatistic {
	return append([]domain.TextStatistic(nil), s.stats...)
}

// Trend derives the week-over-week totals from the text statistics.
func (s *Store) Trend() []domain.TrendPoint {
	return BuildTrend(s.stats, s.labels)
}

// load appends rows read back from a persisted workbook.
func (s *Store) load(rows []domain.SummaryRow, stats []domain.TextStatistic) error {
	for _, r := range rows {
		if r.Week == "" {
			return fmt.Errorf("summary row for %q has no week", r.Student)
		}
		s.weeks[r.Week] = append(s.weeks[r.Week], r)
	}
	s.stats = append(s.stats, stats...)
	return nil
}
