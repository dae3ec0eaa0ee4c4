package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an export output kind.
type Format string

const (
	FormatSpreadsheet Format = "spreadsheet"
	FormatDocument    Format = "document"
	FormatPrintable   Format = "printable"
	FormatCSV         Format = "csv"
	FormatXLSX        Format = "xlsx"
	FormatPDF         Format = "pdf"
)

var (
	ErrUnknownFormat     = errors.New("unknown export format")
	ErrFormatUnavailable = errors.New("export format unavailable")
)

type formatInfo struct {
	ext         string
	mime        string
	disposition string
}

var formats = map[Format]formatInfo{
	FormatSpreadsheet: {"xls", "application/vnd.ms-excel", "attachment"},
	FormatDocument:    {"doc", "application/msword", "attachment"},
	FormatPrintable:   {"html", "text/html; charset=utf-8", "inline"},
	FormatCSV:         {"csv", "text/csv; charset=utf-8", "attachment"},
	FormatXLSX:        {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "attachment"},
	FormatPDF:         {"pdf", "application/pdf", "attachment"},
}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formats[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return formats[f].ext
}
