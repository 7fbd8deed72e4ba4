// Package sources extracts the three daily input tables from the files the
// acquisition jobs leave behind.
//
//   - reference yields: a CSV or workbook with Bond and Yield columns
//   - exchange report: the "Bonds-Trading ATS" sheet of the exchange daily
//     workbook; the header row is located by its Security and Benchmark cells
//   - dealer sheet: the "Yields" sheet (LINKED rows, first column matching
//     ^GI\d{2}$) and the "Spread calc" sheet (NOMINAL rows with a Government
//     cell) of the dealer daily workbook
//
// Readers only shape cells into domain.Table values. Numeric cells are read
// raw so Excel serial dates reach the engine intact; all coercion happens in
// yieldengine.
package sources
