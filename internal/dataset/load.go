package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions controls how a file is read into a Dataset.
type LoadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Decimal separator for numeric cells. If 0, '.'.
	Decimal rune
	// SheetName selects an XLSX sheet by name; takes precedence over SheetIndex.
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based index. <= 0 means the first sheet.
	SheetIndex int
}

// Load reads a CSV, TSV or XLSX file into a Dataset.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IngestionError{Path: path, Err: err}
	}
	defer f.Close()
	return Parse(filepath.Base(path), f, opt)
}

// Parse reads r as the file called name, choosing the reader by extension:
// .xlsx is a workbook, .tsv defaults to tab-delimited, anything else is CSV.
func Parse(name string, r io.Reader, opt LoadOptions) (*Dataset, error) {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return ReadXLSX(r, name, opt)
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(name)
	}
	return ReadCSV(r, name, opt)
}

// ReadCSV reads delimited text with a header row.
func ReadCSV(r io.Reader, name string, opt LoadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &IngestionError{Path: name, Err: errors.New("file is empty; expected a header row")}
		}
		return nil, &IngestionError{Path: name, Err: fmt.Errorf("read header: %w", err)}
	}
	// Excel's "CSV UTF-8" export starts with a byte order mark.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &IngestionError{Path: name, Err: fmt.Errorf("read row %d: %w", len(records)+1, err)}
		}
		if blankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	return New(name, header, records, ParseOptions{Decimal: opt.Decimal})
}

// ReadXLSX reads one worksheet of an .xlsx workbook. The first non-empty row is the header.
func ReadXLSX(r io.Reader, name string, opt LoadOptions) (*Dataset, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &IngestionError{Path: name, Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &IngestionError{Path: name, Err: errors.New("workbook has no sheets")}
	}
	sheet := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, &IngestionError{Path: name, Err: fmt.Errorf("sheet %q not found; available sheets: %s", opt.SheetName, strings.Join(sheets, ", "))}
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, &IngestionError{Path: name, Err: fmt.Errorf("sheet index %d out of range; workbook has %d sheets", idx, len(sheets))}
		}
		sheet = sheets[idx-1]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, &IngestionError{Path: name, Err: fmt.Errorf("read sheet %s: %w", sheet, err)}
	}
	var header []string
	var records [][]string
	for _, row := range rows {
		if blankRecord(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		records = append(records, row)
	}
	if header == nil {
		return nil, &IngestionError{Path: name, Err: fmt.Errorf("sheet %s is empty; expected a header row", sheet)}
	}
	// GetRows drops trailing empty cells, so trailing blank headers are trimmed too.
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	return New(name, header, records, ParseOptions{Decimal: opt.Decimal})
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
