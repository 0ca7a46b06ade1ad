// Package export: выгрузки в Excel (выписка по кошельку, недельная нагрузка учителей).
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]any // string, числа и time.Time пишутся с родным типом ячейки
}

// NewWorkbook собирает книгу из листов; первый лист заменяет стандартный Sheet1.
func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		for c, h := range s.Header {
			if err := f.SetCellStr(s.Title, cell(c+1, 1), h); err != nil {
				return nil, fmt.Errorf("set header: %w", err)
			}
		}
		for r, row := range s.Rows {
			for c, val := range row {
				if err := f.SetCellValue(s.Title, cell(c+1, r+2), val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell(c+1, r+2), err)
				}
			}
		}
		if len(s.Header) > 0 {
			if err := ApplyDefaultFormatting(f, s.Title); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
