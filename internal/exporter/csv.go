package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"yieldcli/internal/config"
	apperrors "yieldcli/internal/errors"
	"yieldcli/pkg/contracts/domain"
)

// ResultHeaders is the header row of the closing yields file
var ResultHeaders = []string{
	"Security",
	"Benchmark",
	"Benchmark Yield",
	"Spread (bps)",
	"Closing Yield",
	"Source",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths    *config.Paths
	decimals int32
	logger   *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative file paths
// resolve against the reports directory.
func NewCSVWriter(paths *config.Paths, decimals int32, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		paths:    paths,
		decimals: decimals,
		logger:   logger.With("component", "csv_writer"),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteResults writes the closing yield table in result order and returns
// the full path written.
func (w *CSVWriter) WriteResults(filePath string, results []domain.ClosingYieldResult) (string, error) {
	records := make([][]string, 0, len(results))
	for _, r := range results {
		records = append(records, w.resultRecord(r))
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   ResultHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

func (w *CSVWriter) resultRecord(r domain.ClosingYieldResult) []string {
	return []string{
		r.Security,
		r.BenchmarkName(),
		formatDecimal(r.BenchmarkYield, w.decimals),
		formatDecimal(r.SpreadBps, w.decimals),
		formatDecimal(r.ClosingYield, w.decimals),
		r.Source,
	}
}

// WriteCSV writes data to a CSV file, replacing any existing file. The
// content goes to a temporary file first and is renamed into place.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError("create report directory", err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return "", apperrors.NewStorageError("create temp file", err).WithContext("path", fullPath)
	}
	defer os.Remove(tmp.Name())

	if err := writeRecords(tmp, options); err != nil {
		tmp.Close()
		return "", apperrors.NewStorageError("write csv", err).WithContext("path", fullPath)
	}
	if err := tmp.Close(); err != nil {
		return "", apperrors.NewStorageError("close csv", err).WithContext("path", fullPath)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", apperrors.NewStorageError("rename csv", err).WithContext("path", fullPath)
	}
	return fullPath, nil
}

func writeRecords(file *os.File, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// resolvePath resolves a relative path against the reports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.ReportPath(filePath)
}
