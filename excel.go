package pricewatch

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// ExcelStore keeps a Grid in one worksheet of an .xlsx workbook. Other sheets
// of the workbook are preserved on save.
type ExcelStore struct {
	Path string
	// ActiveSheet selects the workbook's active sheet instead of the first one.
	ActiveSheet bool
	// CreateIfMissing makes Load return NewHeader instead of failing when the
	// file does not exist.
	CreateIfMissing bool
	NewHeader       []string
}

func (store *ExcelStore) sheetName(f *excelize.File) string {
	if store.ActiveSheet {
		return f.GetSheetName(f.GetActiveSheetIndex())
	}
	return f.GetSheetName(0)
}

func (store *ExcelStore) Load() (*Grid, error) {
	f, err := excelize.OpenFile(store.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && store.CreateIfMissing {
			return NewGrid([][]string{store.NewHeader}), nil
		}
		return nil, PersistenceError{store.Path, "open", err}
	}
	defer f.Close()

	rows, err := f.GetRows(store.sheetName(f))
	if err != nil {
		return nil, PersistenceError{store.Path, "read", err}
	}
	return NewGrid(rows), nil
}

func (store *ExcelStore) Save(grid *Grid) error {
	f, err := excelize.OpenFile(store.Path)
	if errors.Is(err, os.ErrNotExist) {
		f, err = excelize.NewFile(), nil
	}
	if err != nil {
		return PersistenceError{store.Path, "open", err}
	}
	defer f.Close()

	sheet := store.sheetName(f)
	for r, row := range grid.Rows() {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return PersistenceError{store.Path, "write", err}
			}
			// untouched cells keep their type and style
			if current, err := f.GetCellValue(sheet, cell); err == nil && current == value {
				continue
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return PersistenceError{store.Path, "write", fmt.Errorf("%v: %w", cell, err)}
			}
		}
	}
	if err := f.SaveAs(store.Path); err != nil {
		return PersistenceError{store.Path, "save", err}
	}
	return nil
}
