package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is the semantic attendance status derived from a cell's fill colour.
type Label string

const (
	// LabelNone marks a cell whose colour could not be classified.
	LabelNone   Label = ""
	LabelGreen  Label = "green"  // late arrival
	LabelYellow Label = "yellow" // sick
	LabelRed    Label = "red"    // truant
)

// DefaultLabels is the column order used for counts and summaries.
var DefaultLabels = []Label{LabelGreen, LabelYellow, LabelRed}

// String returns the label name, or "none" for LabelNone.
func (l Label) String() string {
	if l == LabelNone {
		return "none"
	}
	return string(l)
}

// Title returns the label as shown in sheet headers ("Green", "Yellow", ...).
func (l Label) Title() string {
	if l == LabelNone {
		return "None"
	}
	s := string(l)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseLabel accepts both the lower-case name and the sheet title form.
func ParseLabel(s string) (Label, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return LabelNone, fmt.Errorf("empty label")
	}
	return Label(s), nil
}

// Color is an RGB triple. It is a value type and never mutated.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGB builds a Color from three components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Hex returns the colour as upper-case RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHexColor parses RRGGBB, AARRGGBB or #RRGGBB. Only the last six hex
// digits are used, so ARGB values from OOXML parse without special casing.
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) < 6 {
		return Color{}, fmt.Errorf("invalid hex colour %q", s)
	}
	s = s[len(s)-6:]
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Cell is one spreadsheet position with its optional text and fill colour.
// Row and Col are 1-based. A nil Fill means no fill or an unreadable one.
type Cell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text,omitempty"`
	Fill *Color `json:"fill,omitempty"`
}

// Row is a data row of the scanned column range, indexed by column.
type Row struct {
	Index int    `json:"index"`
	Cells []Cell `json:"cells"`
}

// Cell returns the cell at the 1-based column, or an empty cell when the
// column lies outside the row.
func (r Row) Cell(col int) Cell {
	for _, c := range r.Cells {
		if c.Col == col {
			return c
		}
	}
	return Cell{Row: r.Index, Col: col}
}

// Student returns the trimmed text of column 1, which holds the student name.
func (r Row) Student() string {
	return strings.TrimSpace(r.Cell(1).Text)
}

// Grid is the in-memory view of one worksheet restricted to the scan range.
type Grid struct {
	Sheet    string `json:"sheet"`
	StartCol int    `json:"start_col"`
	EndCol   int    `json:"end_col"`
	Header   []Cell `json:"header"`
	Rows     []Row  `json:"rows"`
}

// HeaderTexts returns the header texts in column order, starting at StartCol.
func (g Grid) HeaderTexts() []string {
	texts := make([]string, 0, len(g.Header))
	for _, c := range g.Header {
		texts = append(texts, c.Text)
	}
	return texts
}

// DayColumnGroup is one calendar day's sub-columns in header scan order.
type DayColumnGroup struct {
	Day     string `json:"day"`
	Columns []int  `json:"columns"`
}

// DayColumns holds the day groups in the order they were first seen.
type DayColumns []DayColumnGroup

// Columns returns the columns of the named day, or nil.
func (d DayColumns) Columns(day string) []int {
	for _, g := range d {
		if g.Day == day {
			return g.Columns
		}
	}
	return nil
}

// Days returns the day names in first-seen order.
func (d DayColumns) Days() []string {
	days := make([]string, 0, len(d))
	for _, g := range d {
		days = append(days, g.Day)
	}
	return days
}

// DayLabels is the ordered label sequence of one row within one day group.
type DayLabels struct {
	Day    string  `json:"day"`
	Labels []Label `json:"labels"`
}

// StudentRecord is a row identity plus its classified labels per day.
type StudentRecord struct {
	Row     int         `json:"row"`
	Student string      `json:"student"`
	Days    []DayLabels `json:"days"`
}

// TransitionKind is an ordered label pair, e.g. yellow followed by red.
type TransitionKind struct {
	From Label `json:"from"`
	To   Label `json:"to"`
}

// String renders the kind as "from>to".
func (k TransitionKind) String() string {
	return string(k.From) + ">" + string(k.To)
}

// ParseTransitionKind parses "from>to" (also accepting "from->to").
func ParseTransitionKind(s string) (TransitionKind, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "->", ">")
	parts := strings.Split(s, ">")
	if len(parts) != 2 {
		return TransitionKind{}, fmt.Errorf("invalid transition %q: want from>to", s)
	}
	from, err := ParseLabel(parts[0])
	if err != nil {
		return TransitionKind{}, fmt.Errorf("invalid transition %q: %w", s, err)
	}
	to, err := ParseLabel(parts[1])
	if err != nil {
		return TransitionKind{}, fmt.Errorf("invalid transition %q: %w", s, err)
	}
	return TransitionKind{From: from, To: to}, nil
}

// TransitionEvent records a watched transition for one student and day.
// Position is the index of the first label of the pair within the day.
type TransitionEvent struct {
	Row      int            `json:"row"`
	Student  string         `json:"student"`
	Day      string         `json:"day"`
	Kind     TransitionKind `json:"kind"`
	Position int            `json:"position"`
}

// RowTally counts labels across the full scanned column range of one row.
type RowTally struct {
	Row     int           `json:"row"`
	Student string        `json:"student"`
	Counts  map[Label]int `json:"counts"`
	// HasData is true when any cell in range holds a non-empty value.
	HasData bool `json:"has_data"`
}

// Count returns the tally for a label.
func (t RowTally) Count(l Label) int {
	return t.Counts[l]
}

// Total returns the number of classified cells.
func (t RowTally) Total() int {
	n := 0
	for _, c := range t.Counts {
		n += c
	}
	return n
}

// ShouldWrite reports whether the tally is written back to the sheet: the row
// shows any text in range or at least one cell was classified.
func (t RowTally) ShouldWrite() bool {
	return t.HasData || t.Total() > 0
}
