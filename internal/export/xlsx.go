package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the log.
const SheetName = "Reservas"

var headers = []string{"ID", "Data", "Mesa", "Tipo", "Reservado por", "Criado em", "Status", "Cancelado por", "Cancelado em", "Check-in"}

// WriteXLSX writes rows as a single-sheet workbook.  Times are rendered
// in loc.
func WriteXLSX(w io.Writer, rows []LogRow, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{
			r.ID, r.Date, r.Desk, r.Kind, r.CreatedBy,
			r.CreatedAt.In(loc).Format("02/01/2006 15:04"),
			r.Status, r.CanceledBy, formatTime(r.CanceledAt, loc), yesNo(r.CheckedIn),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "F", 22)
	_ = f.SetColWidth(SheetName, "G", "I", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("02/01/2006 15:04")
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
