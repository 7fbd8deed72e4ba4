package exporter

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "yieldcli/internal/errors"
	"yieldcli/pkg/contracts/domain"
)

// ErrDateExists is returned when the workbook already has a row for the run
// date.
var ErrDateExists = errors.New("workbook already has a row for this date")

const (
	// namesRow holds security names, starting at column B
	namesRow = 2
	// firstNameColumn is column B
	firstNameColumn = 2
)

// WorkbookUpdater appends daily closing yields to the distribution workbook.
type WorkbookUpdater struct {
	sheet  string
	logger *slog.Logger
}

// AppendResult reports what Append wrote.
type AppendResult struct {
	Row int `json:"row"`
	// Written counts closing yields placed on the sheet
	Written int `json:"written"`
	// NoResult lists sheet securities left blank
	NoResult []string `json:"no_result,omitempty"`
	// NotOnSheet lists resolved securities without a sheet column
	NotOnSheet []string `json:"not_on_sheet,omitempty"`
}

// NewWorkbookUpdater creates an updater for the named sheet ("Input" when
// empty).
func NewWorkbookUpdater(sheet string, logger *slog.Logger) *WorkbookUpdater {
	if sheet == "" {
		sheet = "Input"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookUpdater{sheet: sheet, logger: logger.With("component", "workbook_updater")}
}

// Append adds one row dated runDate holding each resolved closing yield under
// its security's column and saves the workbook in place.
func (u *WorkbookUpdater) Append(path string, runDate time.Time, results []domain.ClosingYieldResult) (*AppendResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	rows, err := f.GetRows(u.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewStorageError("read workbook sheet", err).
			WithContext("path", path).WithContext("sheet", u.sheet)
	}
	if len(rows) < namesRow {
		return nil, apperrors.NewValidationError(fmt.Sprintf("sheet %s has no security names in row %d", u.sheet, namesRow)).
			WithContext("path", path)
	}

	day := time.Date(runDate.Year(), runDate.Month(), runDate.Day(), 0, 0, 0, 0, time.UTC)
	for i := namesRow; i < len(rows); i++ {
		if len(rows[i]) > 0 && sameDay(rows[i][0], day) {
			return nil, fmt.Errorf("%w: %s row %d", ErrDateExists, day.Format("2006-01-02"), i+1)
		}
	}

	byID := make(map[string]domain.ClosingYieldResult, len(results))
	for _, r := range results {
		if r.Resolved() {
			byID[strings.TrimSpace(r.Security)] = r
		}
	}

	row := len(rows) + 1
	out := &AppendResult{Row: row}

	dateCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(u.sheet, dateCell, day); err != nil {
		return nil, apperrors.NewStorageError("write date cell", err).WithContext("cell", dateCell)
	}
	if style, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("yyyy-mm-dd")}); err == nil {
		_ = f.SetCellStyle(u.sheet, dateCell, dateCell, style)
	}

	onSheet := make(map[string]bool)
	names := rows[namesRow-1]
	for col := firstNameColumn; col <= len(names); col++ {
		name := strings.TrimSpace(names[col-1])
		if name == "" {
			continue
		}
		onSheet[name] = true

		r, ok := byID[name]
		if !ok {
			out.NoResult = append(out.NoResult, name)
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if err := f.SetCellFloat(u.sheet, cell, toFloat(r.ClosingYield.Decimal), -1, 64); err != nil {
			return nil, apperrors.NewStorageError("write yield cell", err).WithContext("cell", cell)
		}
		out.Written++
	}

	for _, r := range results {
		if r.Resolved() && !onSheet[strings.TrimSpace(r.Security)] {
			out.NotOnSheet = append(out.NotOnSheet, r.Security)
		}
	}

	if err := f.Save(); err != nil {
		return nil, apperrors.NewStorageError("save workbook", err).WithContext("path", path)
	}

	u.logger.Info("workbook updated",
		slog.String("path", path),
		slog.Int("row", row),
		slog.Int("written", out.Written))
	if len(out.NoResult) > 0 {
		u.logger.Warn("workbook securities without closing yield", slog.Any("securities", out.NoResult))
	}
	if len(out.NotOnSheet) > 0 {
		u.logger.Warn("closing yields not on workbook sheet", slog.Any("securities", out.NotOnSheet))
	}
	return out, nil
}

// sameDay matches a raw date cell, an Excel serial or an ISO date, against
// day.
func sameDay(raw string, day time.Time) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return false
		}
		y, m, d := t.Date()
		return y == day.Year() && m == day.Month() && d == day.Day()
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return y == day.Year() && m == day.Month() && d == day.Day()
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
