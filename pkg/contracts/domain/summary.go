package domain

import "time"

// FileKey is the class and week parsed from an input filename.
type FileKey struct {
	Class string `json:"class" validate:"required"`
	Week  string `json:"week" validate:"required,numeric"`
}

// SheetName returns the weekly summary sheet name, e.g. "v12".
func (k FileKey) SheetName() string {
	return "v" + k.Week
}

// TextStatistic counts how often a text value appeared on cells of one label.
// Week and Class are empty for per-file statistics.
type TextStatistic struct {
	Week  string `json:"week,omitempty"`
	Class string `json:"class,omitempty"`
	Label Label  `json:"label"`
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// SummaryRow is one student line of a weekly summary sheet.
type SummaryRow struct {
	Week    string        `json:"week"`
	Class   string        `json:"class"`
	Student string        `json:"student"`
	Counts  map[Label]int `json:"counts"`
}

// TrendPoint is the total count of one label in one week.
type TrendPoint struct {
	Week  string `json:"week"`
	Label Label  `json:"label"`
	Total int    `json:"total"`
}

// FileResult is everything the analysis of one input file produced. It only
// lives while that file is being processed.
type FileResult struct {
	SourcePath  string            `json:"source_path"`
	Sheet       string            `json:"sheet"`
	Days        DayColumns        `json:"days"`
	Tallies     []RowTally        `json:"tallies"`
	Records     []StudentRecord   `json:"records"`
	Transitions []TransitionEvent `json:"transitions"`
	TextStats   []TextStatistic   `json:"text_stats"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// Students returns the number of tallies that carry a student name.
func (r FileResult) Students() int {
	n := 0
	for _, t := range r.Tallies {
		if t.Student != "" {
			n++
		}
	}
	return n
}
