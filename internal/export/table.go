// Package export renders module listings as CSV, XLSX and PDF tables.
package export

import (
	"fmt"
	"strconv"
	"time"

	"refinery-ops/internal/platform/tone"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format extension.
func ParseFormat(value string) (Format, bool) {
	switch Format(value) {
	case FormatCSV, FormatXLSX, FormatPDF:
		return Format(value), true
	default:
		return "", false
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Row is one rendered record. Tone colours the table's status cell.
type Row struct {
	Cells []string
	Tone  tone.Tone
}

// Table is a titled grid of text cells.
// StatusColumn is the index of the cell coloured by Row.Tone, or -1.
type Table struct {
	Title        string
	Columns      []string
	Rows         []Row
	StatusColumn int
}

// Render encodes the table in format.
func Render(t Table, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return BuildCSV(t)
	case FormatXLSX:
		return BuildXLSX(t)
	case FormatPDF:
		return BuildPDF(t)
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
