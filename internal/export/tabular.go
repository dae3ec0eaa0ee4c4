package export

import (
	"fmt"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
)

const xlsxSheet = "Sheet1"

func renderCSV(records []record) ([]byte, error) {
	if records == nil {
		records = []record{}
	}
	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return out, nil
}

func renderXLSX(records []record) ([]byte, error) {
	book := excelize.NewFile()
	for col, h := range Header {
		book.SetCellValue(xlsxSheet, cellName(col, 1), h)
	}
	for i, r := range records {
		for col, v := range r.cells() {
			book.SetCellValue(xlsxSheet, cellName(col, i+2), v)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellName builds an A1 reference for a zero-based column. Header has fewer
// than 27 columns.
func cellName(col, row int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row)
}
