// Package exporter writes closing yield results.
//
// CSVWriter produces the daily closing_yields_YYYYMMDD.csv file with a
// UTF-8 BOM for Excel, writing through a temporary file so readers never
// see a partial table. Absent values are empty cells.
//
// WorkbookUpdater appends one dated row to the distribution workbook: the
// "Input" sheet lists security names in row 2 from column B, and each run
// adds a row below the last one with the date in column A.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, 4, logger)
//	path, err := w.WriteResults("closing_yields_20260310.csv", res.Results)
//
//	u := exporter.NewWorkbookUpdater("Input", logger)
//	out, err := u.Append("distribution.xlsx", runDate, res.Results)
package exporter
