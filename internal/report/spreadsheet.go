package report

import (
	"fmt"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding review rows.
const SheetName = "Reviews"

// RenderSpreadsheet encodes doc as an xlsx workbook: a header row of Labels
// followed by one row per review.
func RenderSpreadsheet(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}

	created := fixedStamp
	if doc.GeneratedAt != nil {
		created = doc.GeneratedAt.UTC()
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Subject: doc.Subtitle,
		Created: created.Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}

	header := make([]interface{}, len(Labels))
	for i, label := range Labels {
		header[i] = label
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(Labels), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, row := range doc.Rows {
		values := row.Values()
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("render spreadsheet: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("render spreadsheet: %w", err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(Labels))
	_ = f.SetColWidth(SheetName, "A", lastCol, 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

// Render encodes doc in the given format.
func Render(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatPDF:
		return RenderPDF(doc)
	case FormatExcel:
		return RenderSpreadsheet(doc)
	default:
		return nil, apperr.Validation("unsupported format")
	}
}
