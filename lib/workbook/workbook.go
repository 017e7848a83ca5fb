// Package workbook wraps excelize with the handful of xlsx operations
// report writers in this repo actually use.
package workbook

import (
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet excelize seeds every new workbook with.
const DefaultSheet = "Sheet1"

type Book struct {
	path string
	file *excelize.File
}

// Create starts an empty workbook that will be written to path on Save.
// Nothing touches the filesystem until Save is called.
func Create(path string) *Book {
	return &Book{
		path: path,
		file: excelize.NewFile(),
	}
}

func Open(path string) (*Book, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &Book{path: path, file: file}, nil
}

func (b *Book) Path() string {
	return b.path
}

// File exposes the underlying excelize handle for operations this
// package does not wrap.
func (b *Book) File() *excelize.File {
	return b.file
}

func (b *Book) Save() error {
	return b.file.SaveAs(b.path)
}

func (b *Book) Close() error {
	return b.file.Close()
}

// EnsureSheet returns the index of the named sheet, creating it if it
// does not exist yet.
func (b *Book) EnsureSheet(name string) (int, error) {
	idx, err := b.file.GetSheetIndex(name)
	if err != nil {
		return 0, err
	}
	if idx >= 0 {
		return idx, nil
	}
	return b.file.NewSheet(name)
}

// WriteRow sets the cells of the 1-based row starting at column A.
func (b *Book) WriteRow(sheet string, row int, values []any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		err = b.file.SetCellValue(sheet, cell, value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Book) ReadRows(sheet string) ([][]string, error) {
	return b.file.GetRows(sheet)
}

// SetHyperlink makes cell an external link displaying label.
func (b *Book) SetHyperlink(sheet, cell, link, label string) error {
	err := b.file.SetCellHyperLink(sheet, cell, link, "External")
	if err != nil {
		return err
	}
	return b.file.SetCellValue(sheet, cell, label)
}

func (b *Book) SetColWidth(sheet, startCol, endCol string, width float64) error {
	return b.file.SetColWidth(sheet, startCol, endCol, width)
}

// ColumnNameToIndex converts "A"..."XFD" to 1...16384. Lowercase names
// are accepted, anything outside the range is an error.
func ColumnNameToIndex(name string) (int, error) {
	return excelize.ColumnNameToNumber(name)
}

// ColumnIndexToName converts 1...16384 back to "A"..."XFD".
func ColumnIndexToName(index int) (string, error) {
	return excelize.ColumnNumberToName(index)
}
