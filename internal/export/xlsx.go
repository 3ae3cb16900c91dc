package export

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"refinery-ops/internal/platform/tone"
)

const maxSheetName = 31

// BuildXLSX renders the table on a single sheet with a bold header row.
func BuildXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := setRow(f, sheet, 1, t.Columns); err != nil {
		return nil, err
	}
	if len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return nil, err
		}
	}

	styles := map[tone.Tone]int{}
	for i, row := range t.Rows {
		rowNum := i + 2
		if err := setRow(f, sheet, rowNum, row.Cells); err != nil {
			return nil, err
		}
		if t.StatusColumn < 0 || t.StatusColumn >= len(row.Cells) || row.Tone == "" {
			continue
		}
		style, ok := styles[row.Tone]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{row.Tone.Hex()}},
			})
			if err != nil {
				return nil, err
			}
			styles[row.Tone] = style
		}
		cell, err := excelize.CoordinatesToCellName(t.StatusColumn+1, rowNum)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, cell := range cells {
		values[i] = cell
	}
	return f.SetSheetRow(sheet, start, &values)
}

func sheetName(title string) string {
	if title == "" {
		return "export"
	}
	if len(title) > maxSheetName {
		return title[:maxSheetName]
	}
	return title
}
