// Package files provides the directory side of the attendance pipeline.
//
// Discovery lists the spreadsheet files of an inbox directory, oldest first,
// skipping Excel lock files (~$name.xlsx), hidden files and our own outputs.
// Manager writes plain text outputs such as transition reports into a
// directory, replacing files atomically.
//
// Example usage:
//
//	inbox := files.NewDiscovery("inbox").SkipSuffix("_with_counts")
//	found, err := inbox.List(ctx)
//
//	reports := files.NewManager("reports", logger)
//	path, err := reports.WriteLines("transitions_7A_v12.txt", lines)
package files
