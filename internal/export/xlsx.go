package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"docsense/internal/domain"
)

const sheetName = "Extractions"

// WriteXLSX renders a batch of extractions as a single-sheet XLSX workbook
// using the same columns as the CSV export.
func WriteXLSX(exts []domain.Extraction) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, h := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for rowIdx := range exts {
		row := ExtractionToRow(&exts[rowIdx])
		for colIdx, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return &buf, nil
}
