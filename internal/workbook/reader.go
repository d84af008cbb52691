// Package workbook reads attendance sheets into grids and writes the
// per-file result workbooks.
package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "attendx/internal/errors"
	"attendx/pkg/contracts/domain"
)

// Layout fixes where data lives in an attendance sheet. Rows and columns
// are 1-based.
type Layout struct {
	HeaderRow int
	StartCol  int
	EndCol    int
	// OutputCol is the first of the count columns written to the artifact.
	OutputCol int
	Labels    []domain.Label
}

// DefaultLayout scans columns 1..30 under a header in row 1 and writes
// counts from column 31.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow: 1,
		StartCol:  1,
		EndCol:    30,
		OutputCol: 31,
		Labels:    domain.DefaultLabels,
	}
}

// Validate checks the layout bounds.
func (l Layout) Validate() error {
	switch {
	case l.HeaderRow < 1:
		return fmt.Errorf("header row must be >= 1, got %d", l.HeaderRow)
	case l.StartCol < 1 || l.EndCol < l.StartCol:
		return fmt.Errorf("invalid scan range %d..%d", l.StartCol, l.EndCol)
	case l.OutputCol >= l.StartCol && l.OutputCol <= l.EndCol:
		return fmt.Errorf("output column %d overlaps scan range %d..%d", l.OutputCol, l.StartCol, l.EndCol)
	}
	return nil
}

// ReadGrid opens the workbook and reads its active sheet.
func ReadGrid(path string, layout Layout) (domain.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return ReadSheet(f, f.GetSheetName(f.GetActiveSheetIndex()), layout)
}

// ReadSheet reads cell text and fill colour of the layout's scan range.
// Fills that are missing or cannot be parsed come back as nil.
func ReadSheet(f *excelize.File, sheet string, layout Layout) (domain.Grid, error) {
	if sheet == "" {
		return domain.Grid{}, apperrors.ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	grid := domain.Grid{Sheet: sheet, StartCol: layout.StartCol, EndCol: layout.EndCol}
	fills := newFillCache(f)

	if layout.HeaderRow <= len(rows) {
		for col := layout.StartCol; col <= layout.EndCol; col++ {
			grid.Header = append(grid.Header, domain.Cell{
				Row:  layout.HeaderRow,
				Col:  col,
				Text: textAt(rows, layout.HeaderRow, col),
			})
		}
	}

	for r := layout.HeaderRow + 1; r <= len(rows); r++ {
		row := domain.Row{Index: r}
		if layout.StartCol > 1 {
			row.Cells = append(row.Cells, domain.Cell{Row: r, Col: 1, Text: textAt(rows, r, 1)})
		}
		for col := layout.StartCol; col <= layout.EndCol; col++ {
			fill, err := fills.fill(sheet, col, r)
			if err != nil {
				return domain.Grid{}, err
			}
			row.Cells = append(row.Cells, domain.Cell{Row: r, Col: col, Text: textAt(rows, r, col), Fill: fill})
		}
		grid.Rows = append(grid.Rows, row)
	}

	return grid, nil
}

func textAt(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	line := rows[row-1]
	if col < 1 || col > len(line) {
		return ""
	}
	return strings.TrimSpace(line[col-1])
}

// fillCache resolves style ids to fill colours once per workbook.
type fillCache struct {
	f      *excelize.File
	styles map[int]*domain.Color
}

func newFillCache(f *excelize.File) *fillCache {
	return &fillCache{f: f, styles: make(map[int]*domain.Color)}
}

func (c *fillCache) fill(sheet string, col, row int) (*domain.Color, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	id, err := c.f.GetCellStyle(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("style of %s: %w", cell, err)
	}
	if id == 0 {
		return nil, nil
	}
	if color, ok := c.styles[id]; ok {
		return color, nil
	}

	var color *domain.Color
	if style, err := c.f.GetStyle(id); err == nil && style != nil {
		color = fillColor(style.Fill)
	}
	c.styles[id] = color
	return color, nil
}

// fillColor returns the foreground colour of a solid or gradient fill.
func fillColor(fill excelize.Fill) *domain.Color {
	if len(fill.Color) == 0 {
		return nil
	}
	if fill.Type == "pattern" && fill.Pattern == 0 {
		return nil
	}
	color, err := domain.ParseHexColor(fill.Color[0])
	if err != nil {
		return nil
	}
	return &color
}
