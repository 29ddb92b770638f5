package report

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/models"
)

var showText = regexp.MustCompile(`(?s)Td \(((?:\\.|[^\\)])*)\)Tj ET`)

// pdfStrings returns the text operands of an uncompressed PDF in draw order.
func pdfStrings(t *testing.T, data []byte) []string {
	t.Helper()
	var out []string
	for _, m := range showText.FindAllSubmatch(data, -1) {
		out = append(out, decodeUTF16(unescapePDF(m[1])))
	}
	return out
}

func unescapePDF(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '\\' && i+1 < len(raw) {
			i++
			c = raw[i]
			if c == 'r' {
				c = '\r'
			}
		}
		out = append(out, c)
	}
	return out
}

// decodeUTF16 reads the big-endian UTF-16 that fpdf writes for embedded
// TrueType fonts.
func decodeUTF16(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

func spreadsheetRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, SheetName, f.GetSheetName(0))
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func floatPtr(f float64) *float64 { return &f }

func sampleRow() Row {
	return Row{
		VehicleName:    "Tractor 1",
		EmployeeName:   "Ana",
		DateReviewed:   "2024-06-01",
		Registration:   "ABC123",
		RegoExpiry:     "2025-01-31",
		WOFExpiry:      "2024-10-15",
		OilChecked:     true,
		VehicleChecked: true,
		VehicleBroken:  false,
		Hours:          floatPtr(123.5),
		Notes:          "Tyres worn (front)",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"pdf", FormatPDF, false},
		{"PDF", FormatPDF, false},
		{"excel", FormatExcel, false},
		{"xlsx", FormatExcel, false},
		{"word", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				assert.Equal(t, "unsupported format", apperr.Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowValues(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		got := sampleRow().Values()
		assert.Equal(t, []string{
			"Tractor 1",
			"Ana",
			"1 June 2024",
			"WOF 15 October 2024 / Rego ABC123 until 31 January 2025",
			"Yes",
			"Yes",
			"No",
			"123.5",
			"Tyres worn (front)",
		}, got)
		assert.Len(t, got, len(Labels))
	})

	t.Run("placeholders", func(t *testing.T) {
		got := Row{DateReviewed: "2024-06-01"}.Values()
		assert.Equal(t, UnnamedVehicle, got[0])
		assert.Equal(t, UnknownEmployee, got[1])
		assert.Equal(t, "N/A", got[3])
		assert.Equal(t, "--", got[7])
		assert.Equal(t, "N/A", got[8])
	})
}

func TestRenderPDF(t *testing.T) {
	doc := Document{Title: "Vehicle Review", Rows: []Row{sampleRow()}}

	data, err := RenderPDF(doc)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	want := []string{"Vehicle Review"}
	for i, v := range sampleRow().Values() {
		want = append(want, Labels[i]+":", v)
	}
	assert.Equal(t, want, pdfStrings(t, data))

	t.Run("idempotent", func(t *testing.T) {
		again, err := RenderPDF(doc)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, again))
	})

	t.Run("generated stamp only when requested", func(t *testing.T) {
		assert.NotContains(t, string(data), "Generated ")
		at := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
		doc.GeneratedAt = &at
		stamped, err := RenderPDF(doc)
		require.NoError(t, err)
		assert.Contains(t, pdfStrings(t, stamped), "Generated 2 June 2024 09:30 UTC")
	})
}

func TestRenderPDFEmpty(t *testing.T) {
	data, err := RenderPDF(Document{Title: "Vehicle Review History", Subtitle: "Tractor 1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Vehicle Review History", "Tractor 1", "No reviews"}, pdfStrings(t, data))
}

func TestRenderSpreadsheet(t *testing.T) {
	second := sampleRow()
	second.DateReviewed = "2024-06-08"
	second.Hours = nil
	second.Notes = ""
	doc := Document{Title: "Vehicle Review History", Rows: []Row{sampleRow(), second}}

	data, err := RenderSpreadsheet(doc)
	require.NoError(t, err)

	rows := spreadsheetRows(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, Labels, rows[0])
	assert.Equal(t, sampleRow().Values(), rows[1])
	assert.Equal(t, second.Values(), rows[2])

	again, err := RenderSpreadsheet(doc)
	require.NoError(t, err)
	assert.Equal(t, rows, spreadsheetRows(t, again))
}

func TestRenderFormatsAgree(t *testing.T) {
	row := sampleRow()
	macrons := sampleRow()
	macrons.EmployeeName = "Tāne Ōtaki"
	macrons.Notes = "Brake “soft” – check ✓"
	doc := Document{Title: "Vehicle Review", Rows: []Row{row, macrons}}

	pdfData, err := Render(doc, FormatPDF)
	require.NoError(t, err)
	xlsxData, err := Render(doc, FormatExcel)
	require.NoError(t, err)

	texts := pdfStrings(t, pdfData)[1:]
	var pdfValues []string
	for i := 1; i < len(texts); i += 2 {
		pdfValues = append(pdfValues, texts[i])
	}
	rows := spreadsheetRows(t, xlsxData)
	require.Len(t, rows, 3)
	require.Len(t, pdfValues, 2*len(Labels))
	assert.Equal(t, rows[1], pdfValues[:len(Labels)])
	assert.Equal(t, rows[2], pdfValues[len(Labels):])
	assert.Contains(t, pdfValues, "Tāne Ōtaki")
	assert.Contains(t, pdfValues, "Brake “soft” – check ✓")

	_, err = Render(doc, Format("word"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    Format
		wantMsg string
	}{
		{"pdf review", Request{Kind: KindReview, ID: "r1", Format: "pdf"}, FormatPDF, ""},
		{"xlsx vehicle range", Request{Kind: KindVehicle, ID: "v1", Format: "xlsx", From: "2024-01-01", To: "2024-01-31"}, FormatExcel, ""},
		{"same day range", Request{Kind: KindVehicle, ID: "v1", Format: "pdf", From: "2024-01-01", To: "2024-01-01"}, FormatPDF, ""},
		{"unsupported format", Request{Kind: KindReview, ID: "r1", Format: "word"}, "", "unsupported format"},
		{"format checked before range", Request{Kind: KindVehicle, ID: "v1", Format: "word", From: "2024-02-01", To: "2024-01-01"}, "", "unsupported format"},
		{"inverted range", Request{Kind: KindVehicle, ID: "v1", Format: "pdf", From: "2024-02-01", To: "2024-01-01"}, "", "start date must not be after end date"},
		{"bad from", Request{Kind: KindVehicle, ID: "v1", Format: "pdf", From: "01/02/2024"}, "", "start date must be YYYY-MM-DD"},
		{"bad kind", Request{Kind: "fleet", ID: "v1", Format: "pdf"}, "", "kind must be review or vehicle"},
		{"missing id", Request{Kind: KindReview, Format: "pdf"}, "", "id required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Validate()
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				assert.Equal(t, tt.wantMsg, apperr.Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestFileName(t *testing.T) {
	assert.Equal(t, "review_r1.pdf", Request{Kind: KindReview, ID: "r1"}.FileName(FormatPDF))
	assert.Equal(t, "vehicle_v9.xlsx", Request{Kind: KindVehicle, ID: "v9"}.FileName(FormatExcel))
	assert.Equal(t, "june.pdf", Request{Kind: KindReview, ID: "r1", Filename: "../../etc/june"}.FileName(FormatPDF))
	assert.Equal(t, "june.xlsx", Request{Kind: KindReview, ID: "r1", Filename: `C:\tmp\june.xlsx`}.FileName(FormatExcel))
	assert.Equal(t, "review_r1.pdf", Request{Kind: KindReview, ID: "r1", Filename: "  "}.FileName(FormatPDF))
}

type fakeReviews struct {
	byID map[string]models.VehicleReview
	list []models.VehicleReview
	got  models.ReviewFilter
}

func (f *fakeReviews) FindReviewByID(_ context.Context, id string) (*models.VehicleReview, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("review not found")
	}
	return &r, nil
}

func (f *fakeReviews) FindReviews(_ context.Context, filter models.ReviewFilter) ([]models.VehicleReview, error) {
	f.got = filter
	return f.list, nil
}

func newTestAssembler(reviews *fakeReviews) *Assembler {
	vehicles := map[string]models.Vehicle{
		"v1": {TenantID: "t1", Name: "Tractor 1", Registration: "ABC123"},
		"v2": {TenantID: "t2", Name: "Other"},
	}
	employees := map[string]models.Employee{
		"e1": {TenantID: "t1", Name: "Ana"},
	}
	return NewAssembler(reviews,
		func(_ context.Context, id string) (*models.Vehicle, error) {
			v, ok := vehicles[id]
			if !ok {
				return nil, apperr.NotFound("vehicle not found")
			}
			return &v, nil
		},
		func(_ context.Context, id string) (*models.Employee, error) {
			e, ok := employees[id]
			if !ok {
				return nil, apperr.NotFound("employee not found")
			}
			return &e, nil
		})
}

func TestAssemblerBuild(t *testing.T) {
	employer := models.Claims{Role: models.RoleEmployer, TenantID: "t1"}
	reviews := &fakeReviews{
		byID: map[string]models.VehicleReview{
			"r1":     {TenantID: "t1", VehicleID: "v1", EmployeeID: "e1", DateReviewed: "2024-06-01", OilChecked: true},
			"orphan": {TenantID: "t1", VehicleID: "gone", EmployeeID: "gone", DateReviewed: "2024-06-01"},
			"other":  {TenantID: "t2", VehicleID: "v2", EmployeeID: "e1", DateReviewed: "2024-06-01"},
		},
		list: []models.VehicleReview{
			{TenantID: "t1", VehicleID: "v1", EmployeeID: "e1", DateReviewed: "2024-06-01"},
			{TenantID: "t1", VehicleID: "v1", EmployeeID: "left", DateReviewed: "2024-06-08"},
		},
	}
	a := newTestAssembler(reviews)
	ctx := context.Background()

	t.Run("single review", func(t *testing.T) {
		doc, err := a.Build(ctx, employer, Request{Kind: KindReview, ID: "r1"})
		require.NoError(t, err)
		require.Len(t, doc.Rows, 1)
		assert.Equal(t, "Tractor 1", doc.Rows[0].VehicleName)
		assert.Equal(t, "Ana", doc.Rows[0].EmployeeName)
		assert.Equal(t, "ABC123", doc.Rows[0].Registration)
		assert.True(t, doc.Rows[0].OilChecked)
	})

	t.Run("deleted references become placeholders", func(t *testing.T) {
		doc, err := a.Build(ctx, employer, Request{Kind: KindReview, ID: "orphan"})
		require.NoError(t, err)
		values := doc.Rows[0].Values()
		assert.Equal(t, UnnamedVehicle, values[0])
		assert.Equal(t, UnknownEmployee, values[1])
	})

	t.Run("vehicle history", func(t *testing.T) {
		doc, err := a.Build(ctx, employer, Request{Kind: KindVehicle, ID: "v1", From: "2024-06-01", To: "2024-06-30"})
		require.NoError(t, err)
		assert.Equal(t, models.ReviewFilter{TenantID: "t1", VehicleID: "v1", From: "2024-06-01", To: "2024-06-30"}, reviews.got)
		require.Len(t, doc.Rows, 2)
		assert.Equal(t, "Ana", doc.Rows[0].EmployeeName)
		assert.Equal(t, "", doc.Rows[1].EmployeeName)
		assert.Equal(t, "Tractor 1, 1 June 2024 to 30 June 2024", doc.Subtitle)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := a.Build(ctx, employer, Request{Kind: KindReview, ID: "missing"})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		_, err = a.Build(ctx, employer, Request{Kind: KindReview, ID: "other"})
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))

		_, err = a.Build(ctx, employer, Request{Kind: KindVehicle, ID: "v2"})
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))

		_, err = a.Build(ctx, employer, Request{Kind: KindVehicle, ID: "gone"})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		_, err = a.Build(ctx, models.Claims{Role: "guest", TenantID: "t1"}, Request{Kind: KindReview, ID: "r1"})
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	})
}
