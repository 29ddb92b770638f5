package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// fixedStamp is written as the PDF creation date unless a generated-at time
// is requested, so identical documents encode identically.
var fixedStamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	labelWidth = 50.0
	lineHeight = 8.0
	fontFamily = "DejaVu"
)

// The core PDF fonts only cover cp1252, so names like "Tāne Ōtaki" need an
// embedded TrueType face. fpdf subsets it to the runes actually drawn.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

// RenderPDF encodes doc as a single fixed-layout PDF.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	stamp := fixedStamp
	if doc.GeneratedAt != nil {
		stamp = doc.GeneratedAt.UTC()
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAutoPageBreak(true, 15)

	pdf.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", boldFont)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, doc.Title, "", 1, "L", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont(fontFamily, "", 11)
		pdf.CellFormat(0, lineHeight, doc.Subtitle, "", 1, "L", false, 0, "")
	}
	if doc.GeneratedAt != nil {
		pdf.SetFont(fontFamily, "", 9)
		pdf.CellFormat(0, lineHeight, "Generated "+doc.GeneratedAt.UTC().Format("2 January 2006 15:04 MST"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if len(doc.Rows) == 0 {
		pdf.SetFont(fontFamily, "", 11)
		pdf.CellFormat(0, lineHeight, "No reviews", "", 1, "L", false, 0, "")
	}
	for i, row := range doc.Rows {
		if i > 0 {
			x, y := pdf.GetXY()
			pdf.Line(x, y+2, 200, y+2)
			pdf.Ln(6)
		}
		for j, value := range row.Values() {
			pdf.SetFont(fontFamily, "B", 11)
			pdf.CellFormat(labelWidth, lineHeight, Labels[j]+":", "", 0, "L", false, 0, "")
			pdf.SetFont(fontFamily, "", 11)
			pdf.MultiCell(0, lineHeight, value, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
