package sources

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "yieldcli/internal/errors"
	"yieldcli/pkg/contracts/domain"
)

// Table names given to extracted sources.
const (
	TableReference     = "reference"
	TableExchange      = "exchange"
	TableDealerLinked  = "dealer.linked"
	TableDealerNominal = "dealer.nominal"
)

// utf8BOM is stripped from the first CSV header cell.
const utf8BOM = "\ufeff"

// Loader reads the daily input files.
type Loader struct {
	opts   Options
	linked *regexp.Regexp
	logger *slog.Logger
}

// NewLoader validates opts and creates a loader.
func NewLoader(opts Options, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	re, err := opts.linkedPattern()
	if err != nil {
		return nil, apperrors.NewConfigError("sources", err)
	}
	return &Loader{
		opts:   opts,
		linked: re,
		logger: logger.With("component", "sources"),
	}, nil
}

// LoadReference reads reference yields from a CSV or workbook, chosen by the
// file extension.
func (l *Loader) LoadReference(ctx context.Context, path string) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return l.LoadReferenceCSV(ctx, path)
	default:
		return l.LoadReferenceSheet(ctx, path, l.opts.ReferenceSheet)
	}
}

// LoadReferenceCSV reads a reference yields CSV. The first record is the
// header.
func (l *Loader) LoadReferenceCSV(ctx context.Context, path string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceError("open reference file", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, sourceError("reference file is empty", path, nil)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("read reference header", err).WithContext("path", path)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read reference row", err).WithContext("path", path)
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	l.logger.InfoContext(ctx, "reference yields loaded",
		"path", path,
		"rows", len(rows),
	)
	return domain.NewTable(TableReference, header, rows...), nil
}

// LoadReferenceSheet reads reference yields from a workbook sheet. An empty
// sheet name selects the first sheet.
func (l *Loader) LoadReferenceSheet(ctx context.Context, path, sheet string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, sourceError("workbook has no sheets", path, nil)
		}
		sheet = list[0]
	}

	rows, name, err := readSheet(f, path, sheet)
	if err != nil {
		return nil, err
	}
	t := tableFromRows(TableReference, rows, firstNonBlank(rows))

	l.logger.InfoContext(ctx, "reference yields loaded",
		"path", path,
		"sheet", name,
		"rows", t.Len(),
	)
	return t, nil
}

// LoadExchangeReport reads the exchange bond trading sheet. The header row is
// the first row containing all configured exchange headers.
func (l *Loader) LoadExchangeReport(ctx context.Context, path string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, name, err := readSheet(f, path, l.opts.ExchangeSheet)
	if err != nil {
		return nil, err
	}

	header := findHeaderRow(rows, l.opts.ExchangeHeaders)
	if header < 0 {
		return nil, apperrors.NewParsingError("exchange header row not found", nil).
			WithContext("path", path).
			WithContext("sheet", name).
			WithContext("headers", strings.Join(l.opts.ExchangeHeaders, ","))
	}
	t := tableFromRows(TableExchange, rows, header)
	if t.Len() == 0 {
		return nil, sourceError("no data rows in exchange sheet", path, nil).WithContext("sheet", name)
	}

	l.logger.InfoContext(ctx, "exchange report loaded",
		"path", path,
		"sheet", name,
		"header_row", header+1,
		"rows", t.Len(),
	)
	return t, nil
}

// LoadDealerSheet reads the LINKED and NOMINAL tables of the dealer daily
// workbook. Both sheets are required.
func (l *Loader) LoadDealerSheet(ctx context.Context, path string) (*domain.DealerSheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	linkedRows, linkedName, err := readSheet(f, path, l.opts.LinkedSheet)
	if err != nil {
		return nil, err
	}
	linked := tableFromRows(TableDealerLinked, linkedRows, firstNonBlank(linkedRows))
	linked.Rows = filterRows(linked.Rows, func(row []string) bool {
		return len(row) > 0 && l.linked.MatchString(strings.TrimSpace(row[0]))
	})
	if linked.Len() == 0 {
		return nil, sourceError("no linked bond rows in dealer sheet", path, nil).
			WithContext("sheet", linkedName).
			WithContext("pattern", l.opts.LinkedPattern)
	}

	nominalRows, nominalName, err := readSheet(f, path, l.opts.NominalSheet)
	if err != nil {
		return nil, err
	}
	nominal := tableFromRows(TableDealerNominal, nominalRows, firstNonBlank(nominalRows))
	idCol := nominal.ColumnIndex(l.opts.NominalIDColumn)
	if idCol < 0 {
		return nil, apperrors.NewParsingError("nominal id column not found", nil).
			WithContext("path", path).
			WithContext("sheet", nominalName).
			WithContext("column", l.opts.NominalIDColumn)
	}
	nominal.Rows = filterRows(nominal.Rows, func(row []string) bool {
		return idCol < len(row) && strings.TrimSpace(row[idCol]) != ""
	})
	if nominal.Len() == 0 {
		return nil, sourceError("no nominal bond rows in dealer sheet", path, nil).WithContext("sheet", nominalName)
	}

	l.logger.InfoContext(ctx, "dealer sheet loaded",
		"path", path,
		"linked_rows", linked.Len(),
		"nominal_rows", nominal.Len(),
	)
	return &domain.DealerSheet{Linked: linked, Nominal: nominal}, nil
}

func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, sourceError("input file not available", path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, sourceError("open workbook", path, err)
	}
	return f, nil
}

// readSheet returns the raw rows of sheet. The name is matched exactly first,
// then ignoring case and surrounding spaces ("Spread Calc", "Yields ").
func readSheet(f *excelize.File, path, sheet string) ([][]string, string, error) {
	name := ""
	for _, s := range f.GetSheetList() {
		if s == sheet {
			name = s
			break
		}
	}
	if name == "" {
		want := domain.NormalizeHeader(sheet)
		for _, s := range f.GetSheetList() {
			if domain.NormalizeHeader(s) == want {
				name = s
				break
			}
		}
	}
	if name == "" {
		return nil, "", sourceError("sheet not found", path, nil).
			WithContext("sheet", sheet).
			WithContext("available", strings.Join(f.GetSheetList(), ","))
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", apperrors.NewParsingError("read sheet", err).
			WithContext("path", path).
			WithContext("sheet", name)
	}
	return rows, name, nil
}

// findHeaderRow returns the index of the first row containing every header,
// or -1.
func findHeaderRow(rows [][]string, headers []string) int {
	for i, row := range rows {
		have := make(map[string]bool, len(row))
		for _, c := range row {
			have[domain.NormalizeHeader(c)] = true
		}
		found := true
		for _, h := range headers {
			if !have[domain.NormalizeHeader(h)] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !blank(row) {
			return i
		}
	}
	return -1
}

// tableFromRows uses rows[header] as the header and the following non-blank
// rows as data. A negative header yields an empty table.
func tableFromRows(name string, rows [][]string, header int) *domain.Table {
	if header < 0 || header >= len(rows) {
		return domain.NewTable(name, nil)
	}
	columns := make([]string, len(rows[header]))
	for i, c := range rows[header] {
		columns[i] = strings.TrimSpace(c)
	}
	var data [][]string
	for _, row := range rows[header+1:] {
		if blank(row) {
			continue
		}
		data = append(data, row)
	}
	return domain.NewTable(name, columns, data...)
}

func filterRows(rows [][]string, keep func([]string) bool) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sourceError(message, path string, cause error) *apperrors.AppError {
	return apperrors.NewSourceError(message, cause).WithContext("path", path)
}
