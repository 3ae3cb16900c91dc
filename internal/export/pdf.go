package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0
	pdfRowHeight = 6.0
)

// BuildPDF renders the table on landscape A4 pages with a tone-coloured status cell.
func BuildPDF(t Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, tr(t.Title))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s  Rows: %d", time.Now().UTC().Format(time.RFC3339), len(t.Rows)))
	pdf.Ln(7)

	width := pdfPageWidth
	if len(t.Columns) > 0 {
		width = pdfPageWidth / float64(len(t.Columns))
	}

	header := func() {
		pdf.SetFont("Arial", "B", 7)
		pdf.SetFillColor(242, 242, 242)
		for _, column := range t.Columns {
			pdf.CellFormat(width, pdfRowHeight, fit(pdf, tr(column), width), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 7)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom-10 {
			pdf.AddPage()
			header()
		}
		for i, cell := range row.Cells {
			fill := false
			if i == t.StatusColumn && row.Tone != "" {
				r, g, b := row.Tone.RGB()
				pdf.SetFillColor(r, g, b)
				fill = true
			}
			pdf.CellFormat(width, pdfRowHeight, fit(pdf, tr(cell), width), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit truncates text to the cell width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	cut := []byte(text)
	for len(cut) > 0 && pdf.GetStringWidth(string(cut)+"..") > limit {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + ".."
}
