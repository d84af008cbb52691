package summary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "attendx/internal/errors"
	"attendx/internal/workbook"
	"attendx/pkg/contracts/domain"
)

const (
	// TextStatisticsSheet holds the global (week, class, label, text, count) table.
	TextStatisticsSheet = "TextStatistics"
	// TrendSheet holds the derived per-week totals and their line chart.
	TrendSheet = "Trend"

	defaultSheet = "Sheet1"
	scratchSheet = "~attendx"
	weekPrefix   = "v"
)

// weekSheetPattern matches the sheets Save writes for each week.
var weekSheetPattern = regexp.MustCompile(`^v\d+$`)

// Series colours for the trend chart, matching the default palettes.
var trendColors = map[domain.Label]string{
	domain.LabelGreen:  "00CC00",
	domain.LabelYellow: "FFFF33",
	domain.LabelRed:    "FF3333",
}

// Repository loads and saves the summary workbook.
type Repository struct {
	path   string
	labels []domain.Label
	logger *slog.Logger
}

// NewRepository creates a repository for the workbook at path.
func NewRepository(path string, labels []domain.Label, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if len(labels) == 0 {
		labels = domain.DefaultLabels
	}
	return &Repository{
		path:   path,
		labels: labels,
		logger: logger.With(slog.String("component", "summary_repository")),
	}
}

// Path returns the workbook location.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the workbook into a new Store. A missing workbook yields an
// empty store.
func (r *Repository) Load(ctx context.Context) (*Store, error) {
	store := NewStore(r.labels)

	f, err := excelize.OpenFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.DebugContext(ctx, "summary workbook not found, starting empty", slog.String("path", r.path))
		return store, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(r.path, err)
	}
	defer f.Close()

	var rows []domain.SummaryRow
	var stats []domain.TextStatistic
	for _, sheet := range f.GetSheetList() {
		switch {
		case sheet == TextStatisticsSheet:
			stats, err = readTextStatistics(f)
		case isWeekSheet(sheet):
			var weekRows []domain.SummaryRow
			var owned bool
			weekRows, owned, err = readWeek(f, sheet)
			if err == nil && !owned {
				r.logger.WarnContext(ctx, "Week sheet has a foreign header, ignored",
					slog.String("path", r.path),
					slog.String("sheet", sheet))
				continue
			}
			rows = append(rows, weekRows...)
		default:
			continue
		}
		if err != nil {
			return nil, apperrors.NewStorageError(r.path, fmt.Errorf("read sheet %s: %w", sheet, err))
		}
	}

	if err := store.load(rows, stats); err != nil {
		return nil, apperrors.NewStorageError(r.path, err)
	}
	r.logger.DebugContext(ctx, "summary workbook loaded",
		slog.String("path", r.path),
		slog.Int("weeks", len(store.Weeks())),
		slog.Int("text_statistics", len(stats)),
	)
	return store, nil
}

// Save writes the store into the existing workbook and renames a temporary
// copy into place, so a failure never leaves a half-written summary behind.
// Only the week sheets, TextStatistics and Trend are replaced; any other
// sheet in the workbook is kept as it is. The Trend chart is rebuilt on
// every save.
func (r *Repository) Save(ctx context.Context, store *Store) error {
	f, created, err := r.open()
	if err != nil {
		return apperrors.NewStorageError(r.path, err)
	}
	defer f.Close()

	if err := r.build(f, store, created); err != nil {
		return apperrors.NewStorageError(r.path, err)
	}
	if err := workbook.SaveAtomic(f, r.path); err != nil {
		return apperrors.NewStorageError(r.path, err)
	}

	r.logger.InfoContext(ctx, "summary workbook saved",
		slog.String("path", r.path),
		slog.Int("weeks", len(store.Weeks())),
	)
	return nil
}

// open returns the current workbook, or a new one when none exists yet.
// An unreadable workbook is an error rather than something to overwrite.
func (r *Repository) open() (f *excelize.File, created bool, err error) {
	f, err = excelize.OpenFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

func (r *Repository) build(f *excelize.File, store *Store, created bool) error {
	owned, err := ownedSheets(f)
	if err != nil {
		return err
	}
	for _, week := range store.Weeks() {
		name := weekPrefix + week
		if idx, _ := f.GetSheetIndex(name); idx != -1 && !owned[name] {
			return fmt.Errorf("sheet %s exists and is not a summary sheet", name)
		}
	}

	// The scratch sheet keeps the workbook non-empty while owned sheets are
	// dropped; excelize refuses to delete the last sheet.
	if _, err := f.NewSheet(scratchSheet); err != nil {
		return err
	}
	for name := range owned {
		if err := f.DeleteSheet(name); err != nil {
			return err
		}
	}
	if created {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return err
		}
	}

	labels := store.Labels()
	for _, week := range store.Weeks() {
		if err := writeWeek(f, week, labels, store.Rows(week)); err != nil {
			return err
		}
	}
	if err := writeTextStatistics(f, store.TextStatistics()); err != nil {
		return err
	}
	if err := writeTrend(f, labels, store.Trend()); err != nil {
		return err
	}

	if err := f.DeleteSheet(scratchSheet); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return nil
}

// ownedSheets lists the sheets Save rewrites: TextStatistics, Trend and
// every week sheet that is empty or carries the Class, Student header.
func ownedSheets(f *excelize.File) (map[string]bool, error) {
	owned := make(map[string]bool)
	for _, sheet := range f.GetSheetList() {
		switch {
		case sheet == TextStatisticsSheet, sheet == TrendSheet:
			owned[sheet] = true
		case isWeekSheet(sheet):
			raw, err := f.GetRows(sheet)
			if err != nil {
				return nil, err
			}
			if len(raw) == 0 || isSummaryHeader(raw[0]) {
				owned[sheet] = true
			}
		}
	}
	return owned, nil
}

func isWeekSheet(name string) bool {
	return weekSheetPattern.MatchString(name)
}

func isSummaryHeader(header []string) bool {
	return strings.EqualFold(strings.TrimSpace(cellAt(header, 0)), "Class") &&
		strings.EqualFold(strings.TrimSpace(cellAt(header, 1)), "Student")
}

func writeWeek(f *excelize.File, week string, labels []domain.Label, rows []domain.SummaryRow) error {
	sheet := weekPrefix + week
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"Class", "Student"}
	for _, l := range labels {
		header = append(header, l.Title())
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		values := []interface{}{row.Class, row.Student}
		for _, l := range labels {
			values = append(values, row.Counts[l])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// readWeek returns the rows of a week sheet. owned is false when the header
// is not ours; such a sheet is left to whoever wrote it.
func readWeek(f *excelize.File, sheet string) (rows []domain.SummaryRow, owned bool, err error) {
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, true, nil
	}
	if !isSummaryHeader(raw[0]) {
		return nil, false, nil
	}

	week := strings.TrimPrefix(sheet, weekPrefix)
	labelCols := make(map[int]domain.Label)
	for i, h := range raw[0] {
		if i < 2 {
			continue
		}
		if l, err := domain.ParseLabel(h); err == nil {
			labelCols[i] = l
		}
	}

	for _, line := range raw[1:] {
		student := strings.TrimSpace(cellAt(line, 1))
		if student == "" {
			continue
		}
		row := domain.SummaryRow{
			Week:    week,
			Class:   strings.TrimSpace(cellAt(line, 0)),
			Student: student,
			Counts:  make(map[domain.Label]int, len(labelCols)),
		}
		for i, l := range labelCols {
			n, err := parseCount(cellAt(line, i))
			if err != nil {
				return nil, true, fmt.Errorf("row for %q: %w", student, err)
			}
			row.Counts[l] = n
		}
		rows = append(rows, row)
	}
	return rows, true, nil
}

func writeTextStatistics(f *excelize.File, stats []domain.TextStatistic) error {
	if _, err := f.NewSheet(TextStatisticsSheet); err != nil {
		return err
	}
	header := []interface{}{"Week", "Class", "Label", "Text", "Count"}
	if err := f.SetSheetRow(TextStatisticsSheet, "A1", &header); err != nil {
		return err
	}
	for i, s := range stats {
		values := []interface{}{weekValue(s.Week), s.Class, s.Label.Title(), s.Text, s.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TextStatisticsSheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func readTextStatistics(f *excelize.File) ([]domain.TextStatistic, error) {
	raw, err := f.GetRows(TextStatisticsSheet)
	if err != nil {
		return nil, err
	}
	var stats []domain.TextStatistic
	for i, line := range raw {
		if i == 0 {
			continue
		}
		week := strings.TrimSpace(cellAt(line, 0))
		text := strings.TrimSpace(cellAt(line, 3))
		if week == "" || text == "" {
			continue
		}
		label, err := domain.ParseLabel(cellAt(line, 2))
		if err != nil {
			continue
		}
		n, err := parseCount(cellAt(line, 4))
		if err != nil || n <= 0 {
			continue
		}
		stats = append(stats, domain.TextStatistic{
			Week:  week,
			Class: strings.TrimSpace(cellAt(line, 1)),
			Label: label,
			Text:  text,
			Count: n,
		})
	}
	return stats, nil
}

func writeTrend(f *excelize.File, labels []domain.Label, points []domain.TrendPoint) error {
	if _, err := f.NewSheet(TrendSheet); err != nil {
		return err
	}
	header := []interface{}{"Week"}
	for _, l := range labels {
		header = append(header, l.Title())
	}
	if err := f.SetSheetRow(TrendSheet, "A1", &header); err != nil {
		return err
	}

	var weeks []string
	byWeek := make(map[string]map[domain.Label]int)
	for _, p := range points {
		if _, ok := byWeek[p.Week]; !ok {
			byWeek[p.Week] = make(map[domain.Label]int)
			weeks = append(weeks, p.Week)
		}
		byWeek[p.Week][p.Label] = p.Total
	}
	for i, week := range weeks {
		values := []interface{}{weekValue(week)}
		for _, l := range labels {
			values = append(values, byWeek[week][l])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TrendSheet, cell, &values); err != nil {
			return err
		}
	}
	if len(weeks) == 0 {
		return nil
	}

	last := len(weeks) + 1
	series := make([]excelize.ChartSeries, 0, len(labels))
	for i, l := range labels {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		s := excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", TrendSheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", TrendSheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", TrendSheet, col, col, last),
		}
		if c, ok := trendColors[l]; ok {
			s.Fill = excelize.Fill{Type: "pattern", Color: []string{c}, Pattern: 1}
		}
		series = append(series, s)
	}

	return f.AddChart(TrendSheet, "G2", &excelize.Chart{
		Type:      excelize.Line,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: "Weekly trend"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Week"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Count"}}},
		Dimension: excelize.ChartDimension{Width: 640, Height: 320},
	})
}

// weekValue writes numeric weeks as numbers so the chart axis sorts them.
func weekValue(week string) interface{} {
	if n, err := strconv.Atoi(week); err == nil {
		return n
	}
	return week
}

func cellAt(line []string, i int) string {
	if i < len(line) {
		return line[i]
	}
	return ""
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int(v), nil
}
