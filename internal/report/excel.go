// Package report renders the combined expenses and work-hours workbook.
package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"tempo/internal/core"
)

// ErrGeneration wraps any failure while assembling the workbook so callers
// can report a single generation error instead of excelize internals.
var ErrGeneration = errors.New("report generation failed")

const (
	SheetName = "Combined Report"
	Filename  = "combined_report.xlsx"

	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04"
)

var (
	expenseHeader = []string{"Company", "Amount", "Description", "Category", "Date"}
	workHeader    = []string{"Company", "Start Time", "End Time", "Duration (hours)", "Submitted"}
)

// BuildCombined renders both record sets into a single sheet: an expenses
// section followed by a work-hours section, separated by one blank row.
// The workbook is built fully in memory so a failure never leaves a
// partial file behind.
func BuildCombined(expenses []core.ExpenseRecord, sessions []core.WorkSession) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	row := 1
	if err := writeRow(f, row, []any{"EXPENSES REPORT"}); err != nil {
		return nil, err
	}
	row++
	if err := writeRow(f, row, toAny(expenseHeader)); err != nil {
		return nil, err
	}
	row++
	for _, e := range expenses {
		cells := []any{
			e.Company,
			e.Amount,
			e.Description,
			e.Category,
			e.Date.Format(dateLayout),
		}
		if err := writeRow(f, row, cells); err != nil {
			return nil, err
		}
		row++
	}

	row++ // blank separator row

	if err := writeRow(f, row, []any{"WORK HOURS REPORT"}); err != nil {
		return nil, err
	}
	row++
	if err := writeRow(f, row, toAny(workHeader)); err != nil {
		return nil, err
	}
	row++
	for _, s := range sessions {
		end := ""
		if s.EndTime != nil {
			end = s.EndTime.Format(timeLayout)
		}
		submitted := "No"
		if s.IsSubmitted {
			submitted = "Yes"
		}
		cells := []any{
			s.Company,
			s.StartTime.Format(timeLayout),
			end,
			s.Duration,
			submitted,
		}
		if err := writeRow(f, row, cells); err != nil {
			return nil, err
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
