package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"events-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// exportMaxRows caps one export file to the repository's maximum page.
const exportMaxRows = 500

// eventsExportHeader column order of the export sheet.
var eventsExportHeader = []string{
	"Event ID",
	"Source",
	"Title",
	"Description",
	"Start Time",
	"End Time",
	"Location",
	"Campus",
	"Organization",
	"Category",
	"Source URL",
	"Last Seen",
	"Created At",
}

// GenerateEventsExport renders the filtered listing as an xlsx file and
// returns the bytes plus a unique download filename.
func GenerateEventsExport(events []*domain.Event) ([]byte, string, error) {
	f := excelize.NewFile()
	// Don't defer Close() before WriteTo; the file must stay open.

	sheetName := "Events"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range eventsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to style header: %w", err)
		}
	}

	formatTime := func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	}

	for rowIdx, e := range events {
		endTime := ""
		if e.EndTime != nil {
			endTime = formatTime(*e.EndTime)
		}
		values := []any{
			e.EventID,
			e.Source,
			e.Title,
			e.Description,
			formatTime(e.StartTime),
			endTime,
			e.Location,
			e.Campus,
			e.Organization,
			e.Category,
			e.SourceURL,
			formatTime(e.LastSeen),
			formatTime(e.CreatedAt),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, "", fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, "", fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close workbook: %w", err)
	}

	filename := fmt.Sprintf("events-%s-%s.xlsx",
		time.Now().UTC().Format("20060102"), uuid.NewString()[:8])
	return buf.Bytes(), filename, nil
}
