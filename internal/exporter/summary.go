package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"attendx/internal/summary"
	"attendx/pkg/contracts/domain"
)

// File names written by SummaryExporter.
const (
	TextStatisticsFile = "text_statistics.csv"
	TrendFile          = "trend.csv"
)

// WeekFile names the export of one week, e.g. summary_v12.csv.
func WeekFile(week string) string {
	return fmt.Sprintf("summary_v%s.csv", week)
}

// SummaryExporter writes the summary workbook content as CSV: one file per
// week, the text statistics and the wide trend table.
type SummaryExporter struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewSummaryExporter creates an exporter writing through writer.
func NewSummaryExporter(writer *CSVWriter, logger *slog.Logger) *SummaryExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryExporter{writer: writer, logger: logger.With(slog.String("component", "exporter"))}
}

// Export writes every file and returns their paths in write order.
func (e *SummaryExporter) Export(ctx context.Context, store *summary.Store) ([]string, error) {
	labels := store.Labels()
	var written []string

	for _, week := range store.Weeks() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := e.exportWeek(week, labels, store.Rows(week))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	path, err := e.exportTextStatistics(store.TextStatistics())
	if err != nil {
		return written, err
	}
	written = append(written, path)

	path, err = e.exportTrend(labels, store.Trend())
	if err != nil {
		return written, err
	}
	written = append(written, path)

	e.logger.InfoContext(ctx, "Summary exported",
		slog.Int("files", len(written)),
		slog.Int("weeks", len(store.Weeks())))
	return written, nil
}

func (e *SummaryExporter) exportWeek(week string, labels []domain.Label, rows []domain.SummaryRow) (string, error) {
	headers := append([]string{"Class", "Student"}, labelHeaders(labels)...)
	headers = append(headers, "Total")

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := []string{row.Class, row.Student}
		total := 0
		for _, l := range labels {
			record = append(record, formatInt(row.Counts[l]))
			total += row.Counts[l]
		}
		records = append(records, append(record, formatInt(total)))
	}
	return e.writer.WriteSimpleCSV(WeekFile(week), headers, records)
}

func (e *SummaryExporter) exportTextStatistics(stats []domain.TextStatistic) (string, error) {
	records := lo.Map(stats, func(s domain.TextStatistic, _ int) []string {
		return []string{s.Week, s.Class, s.Label.Title(), s.Text, formatInt(s.Count)}
	})
	return e.writer.WriteSimpleCSV(TextStatisticsFile,
		[]string{"Week", "Class", "Label", "Text", "Count"}, records)
}

// exportTrend pivots the points into one row per week.
func (e *SummaryExporter) exportTrend(labels []domain.Label, points []domain.TrendPoint) (string, error) {
	byWeek := lo.GroupBy(points, func(p domain.TrendPoint) string { return p.Week })
	weeks := summary.SortWeeks(lo.Keys(byWeek))

	records := make([][]string, 0, len(weeks))
	for _, week := range weeks {
		totals := make(map[domain.Label]int)
		for _, p := range byWeek[week] {
			totals[p.Label] += p.Total
		}
		record := []string{week}
		for _, l := range labels {
			record = append(record, formatInt(totals[l]))
		}
		records = append(records, record)
	}
	return e.writer.WriteSimpleCSV(TrendFile, append([]string{"Week"}, labelHeaders(labels)...), records)
}
