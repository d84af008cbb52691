package exporter

import (
	"strconv"

	"attendx/pkg/contracts/domain"
)

// formatInt formats a count for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// labelHeaders renders labels as column headers, e.g. "Green".
func labelHeaders(labels []domain.Label) []string {
	headers := make([]string, len(labels))
	for i, l := range labels {
		headers[i] = l.Title()
	}
	return headers
}
