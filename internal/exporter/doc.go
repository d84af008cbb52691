// Package exporter provides CSV export of the summary workbook.
//
// CSVWriter is the core writer: headers, records and a UTF-8 BOM so Excel
// opens the files correctly. Files are written to a temporary name and
// renamed into place.
//
// SummaryExporter writes one summary_v<week>.csv per week (class, student,
// one column per label and a total), text_statistics.csv and trend.csv with
// one row per week.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("/path/to/exports", logger)
//	paths, err := exporter.NewSummaryExporter(writer, logger).Export(ctx, store)
package exporter
