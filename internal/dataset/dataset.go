// Package dataset holds the immutable tabular dataset that every analysis
// stage reads, together with the loaders that build it and the Year filter
// that derives views from it.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reserved columns every dataset must carry.
const (
	ColYear = "Year"
	ColSMW  = "SMW"
	ColMite = "Mite"
)

// RequiredColumns lists the reserved columns in header order of the reference file.
var RequiredColumns = []string{ColYear, ColSMW, ColMite}

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// ParseOptions controls how cells are interpreted.
type ParseOptions struct {
	// Decimal is the decimal separator for numeric cells. 0 means '.'.
	Decimal rune
}

// Dataset is an immutable table. Views returned by FilterYears share row
// storage with their parent and must never be written to.
type Dataset struct {
	name    string
	columns []string
	index   map[string]int
	kinds   []Kind
	rows    [][]string
	nums    [][]float64 // NaN where the cell is missing or not numeric
}

// New normalizes the header, validates the reserved columns and infers column kinds.
// Records shorter than the header are padded with empty cells.
func New(name string, header []string, records [][]string, opt ParseOptions) (*Dataset, error) {
	cols, err := NormalizeColumns(header)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	var missing []string
	for _, req := range RequiredColumns {
		if _, ok := index[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	ncol := len(cols)
	rows := make([][]string, 0, len(records))
	nums := make([][]float64, 0, len(records))
	numCnt := make([]int, ncol)
	txtCnt := make([]int, ncol)
	for i, rec := range records {
		if len(rec) > ncol {
			return nil, &IngestionError{Path: name, Err: fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rec), ncol)}
		}
		row := make([]string, ncol)
		num := make([]float64, ncol)
		for j := 0; j < ncol; j++ {
			if j < len(rec) {
				row[j] = strings.TrimSpace(rec[j])
			}
			num[j] = math.NaN()
			if isMissing(row[j]) {
				continue
			}
			if x, ok := parseNumeric(row[j], opt.Decimal); ok {
				num[j] = x
				numCnt[j]++
			} else {
				txtCnt[j]++
			}
		}
		rows = append(rows, row)
		nums = append(nums, num)
	}

	kinds := make([]Kind, ncol)
	for j := range kinds {
		if numCnt[j] > 0 && txtCnt[j] == 0 {
			kinds[j] = KindNumeric
		} else {
			kinds[j] = KindCategorical
		}
	}
	return &Dataset{name: name, columns: cols, index: index, kinds: kinds, rows: rows, nums: nums}, nil
}

// Name returns the source name, usually the file's base name.
func (d *Dataset) Name() string { return d.name }

// Columns returns a copy of the normalized column names in file order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Has reports whether col is a column of the dataset.
func (d *Dataset) Has(col string) bool {
	_, ok := d.index[col]
	return ok
}

// Kind returns the inferred kind of col, or "" if the column does not exist.
func (d *Dataset) Kind(col string) Kind {
	j, ok := d.index[col]
	if !ok {
		return ""
	}
	return d.kinds[j]
}

// NumericColumns returns the numeric columns in file order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for j, c := range d.columns {
		if d.kinds[j] == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Value returns the trimmed cell at row i, column col.
func (d *Dataset) Value(i int, col string) string {
	j, ok := d.index[col]
	if !ok || i < 0 || i >= len(d.rows) {
		return ""
	}
	return d.rows[i][j]
}

// Float returns the numeric cell at row i, column col. ok is false for missing
// or non-numeric cells.
func (d *Dataset) Float(i int, col string) (float64, bool) {
	j, ok := d.index[col]
	if !ok || i < 0 || i >= len(d.nums) {
		return 0, false
	}
	x := d.nums[i][j]
	if math.IsNaN(x) {
		return 0, false
	}
	return x, true
}

// Floats returns the numeric values of col, with NaN for missing cells.
func (d *Dataset) Floats(col string) []float64 {
	j, ok := d.index[col]
	if !ok {
		return nil
	}
	out := make([]float64, len(d.nums))
	for i, num := range d.nums {
		out[i] = num[j]
	}
	return out
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.columns))
	copy(out, d.rows[i])
	return out
}

// derive builds a view over a subset of rows, inheriting kinds from d.
func (d *Dataset) derive(keep []int) *Dataset {
	rows := make([][]string, len(keep))
	nums := make([][]float64, len(keep))
	for k, i := range keep {
		rows[k] = d.rows[i]
		nums[k] = d.nums[i]
	}
	return &Dataset{name: d.name, columns: d.columns, index: d.index, kinds: d.kinds, rows: rows, nums: nums}
}

var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "-": {},
}

func isMissing(s string) bool {
	_, ok := missingTokens[strings.ToLower(s)]
	return ok
}

func parseNumeric(s string, decimal rune) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00A0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if decimal == ',' {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
