// Package export renders summary data into downloadable workbooks.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one staff member's monthly totals.
type Row struct {
	UserID           string
	DisplayName      string
	ScheduledMinutes float64
	ActualMinutes    float64
	BreakMinutes     float64
}

// StoreMonth carries everything needed to render one store's monthly sheet.
type StoreMonth struct {
	StoreID string
	Year    int
	Month   time.Month
	Rows    []Row
}

var headerCells = []string{"スタッフ ID", "表示名", "予定時間(分)", "実働時間(分)", "休憩時間(分)"}

// StoreMonthWorkbook builds a workbook with one sheet of per-staff monthly
// totals. Rows are ordered by display name, then by staff id for ties. The
// caller owns the returned file and must Close it.
func StoreMonthWorkbook(data StoreMonth) (*excelize.File, error) {
	file := excelize.NewFile()

	sheet := fmt.Sprintf("%04d-%02d", data.Year, int(data.Month))
	defaultSheet := file.GetSheetName(0)
	if err := file.SetSheetName(defaultSheet, sheet); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	title := fmt.Sprintf("店舗 %s %d年%d月 勤怠集計", data.StoreID, data.Year, int(data.Month))
	if err := file.SetCellValue(sheet, "A1", title); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	for i, header := range headerCells {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	rows := make([]Row, len(data.Rows))
	copy(rows, data.Rows)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DisplayName == rows[j].DisplayName {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].DisplayName < rows[j].DisplayName
	})

	for i, row := range rows {
		values := []any{row.UserID, row.DisplayName, row.ScheduledMinutes, row.ActualMinutes, row.BreakMinutes}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+3)
			if err != nil {
				_ = file.Close()
				return nil, fmt.Errorf("failed to resolve data cell: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				_ = file.Close()
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	return file, nil
}
