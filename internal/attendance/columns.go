package attendance

import (
	"fmt"
	"strings"

	"attendx/pkg/contracts/domain"
)

// DayKeyword maps a lower-case header substring to a canonical day name.
type DayKeyword struct {
	Token string
	Day   string
}

// DefaultDayKeywords covers Swedish and English weekday abbreviations.
func DefaultDayKeywords() []DayKeyword {
	return []DayKeyword{
		{Token: "mån", Day: "Monday"},
		{Token: "tis", Day: "Tuesday"},
		{Token: "ons", Day: "Wednesday"},
		{Token: "tor", Day: "Thursday"},
		{Token: "fre", Day: "Friday"},
		{Token: "mon", Day: "Monday"},
		{Token: "tue", Day: "Tuesday"},
		{Token: "wed", Day: "Wednesday"},
		{Token: "thu", Day: "Thursday"},
		{Token: "fri", Day: "Friday"},
	}
}

// ParseDayKeywords parses "token=Day" entries, keeping their order.
func ParseDayKeywords(entries []string) ([]DayKeyword, error) {
	keywords := make([]DayKeyword, 0, len(entries))
	for _, e := range entries {
		token, day, ok := strings.Cut(e, "=")
		token = strings.ToLower(strings.TrimSpace(token))
		day = strings.TrimSpace(day)
		if !ok || token == "" || day == "" {
			return nil, fmt.Errorf("invalid day keyword %q: want token=Day", e)
		}
		keywords = append(keywords, DayKeyword{Token: token, Day: day})
	}
	return keywords, nil
}

// ColumnMapper assigns header columns to calendar-day groups.
type ColumnMapper struct {
	keywords []DayKeyword
	startCol int
}

// NewColumnMapper creates a mapper. startCol is the 1-based column of the
// first header entry passed to Map.
func NewColumnMapper(keywords []DayKeyword, startCol int) *ColumnMapper {
	if len(keywords) == 0 {
		keywords = DefaultDayKeywords()
	}
	if startCol < 1 {
		startCol = 1
	}
	return &ColumnMapper{keywords: keywords, startCol: startCol}
}

// Map scans the header left to right. A cell whose lower-cased text contains a
// keyword starts (or continues) that day's group; any other cell joins the
// most recently matched day, so a label on the first sub-column of a merged
// block covers the whole block. Columns before the first match are dropped.
// A header without any day keyword yields an empty result.
func (m *ColumnMapper) Map(header []string) domain.DayColumns {
	var groups domain.DayColumns
	index := make(map[string]int)
	current := ""

	for i, text := range header {
		col := m.startCol + i
		if day, ok := m.matchDay(text); ok {
			current = day
		}
		if current == "" {
			continue
		}

		pos, ok := index[current]
		if !ok {
			pos = len(groups)
			index[current] = pos
			groups = append(groups, domain.DayColumnGroup{Day: current})
		}
		groups[pos].Columns = append(groups[pos].Columns, col)
	}

	return groups
}

func (m *ColumnMapper) matchDay(text string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}
	for _, kw := range m.keywords {
		if strings.Contains(text, kw.Token) {
			return kw.Day, true
		}
	}
	return "", false
}
