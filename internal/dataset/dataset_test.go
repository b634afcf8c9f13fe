package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = ` Year ,SMW, Mite,Tmax ,RH,Wind Speed
2019,1,2.5,28.1,80,3.2
2019,2,3.0,29.4,78,2.9
2020,1,1.2,27.0,85,4.1
2020,2,NA,27.5,83,3.8
2021,1,4.4,30.2,70,2.0
`

func mustRead(t *testing.T, src string) *Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(src), "sample.csv", LoadOptions{})
	require.NoError(t, err)
	return ds
}

func TestNormalizeColumnsTrimsAndIsIdempotent(t *testing.T) {
	in := []string{"  Year", "SMW\t", " Mite ", "Tmax"}
	once, err := NormalizeColumns(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Year", "SMW", "Mite", "Tmax"}, once)
	for _, c := range once {
		assert.Equal(t, strings.TrimSpace(c), c)
	}

	twice, err := NormalizeColumns(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeColumnsCollisionIsSchemaError(t *testing.T) {
	_, err := NormalizeColumns([]string{" Year ", "Year ", "Mite"})
	require.Error(t, err)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Collisions, 1)
	assert.Contains(t, se.Collisions[0], `"Year"`)
}

func TestNormalizeColumnsBlankHeader(t *testing.T) {
	_, err := NormalizeColumns([]string{"Year", "  "})
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Error(), "column 2 has an empty name")
}

func TestReadCSVNormalizesAndInfersKinds(t *testing.T) {
	ds := mustRead(t, sampleCSV)
	assert.Equal(t, "sample.csv", ds.Name())
	assert.Equal(t, []string{"Year", "SMW", "Mite", "Tmax", "RH", "Wind Speed"}, ds.Columns())
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, KindNumeric, ds.Kind("Mite"))
	assert.Equal(t, KindNumeric, ds.Kind("Wind Speed"))
	assert.Equal(t, Kind(""), ds.Kind("Nope"))

	_, ok := ds.Float(3, "Mite")
	assert.False(t, ok, "NA must read as missing")
	x, ok := ds.Float(0, "Tmax")
	require.True(t, ok)
	assert.InDelta(t, 28.1, x, 1e-9)
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("\ufeffYear,SMW,Mite,Tmax\n2019,1,2,30\n"), "excel.csv", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Year", "SMW", "Mite", "Tmax"}, ds.Columns())
	assert.Equal(t, []string{"2019"}, ds.DistinctYears())
}

func TestReadCSVCategoricalColumn(t *testing.T) {
	ds := mustRead(t, "Year,SMW,Mite,Site\n2019,1,2,north\n2019,2,3,south\n")
	assert.Equal(t, KindCategorical, ds.Kind("Site"))
	assert.Equal(t, []string{"Year", "SMW", "Mite"}, ds.NumericColumns())
}

func TestReadCSVMissingRequiredColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Year,Tmax\n2019,30\n"), "bad.csv", LoadOptions{})
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"SMW", "Mite"}, se.Missing)
}

func TestReadCSVIngestionErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "empty.csv", LoadOptions{})
	var ie *IngestionError
	require.True(t, errors.As(err, &ie))

	_, err = ReadCSV(strings.NewReader("Year,SMW,Mite\n2019,1,2,9\n"), "wide.csv", LoadOptions{})
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, err.Error(), "row 1 has 4 fields")

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	require.True(t, errors.As(err, &ie))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadCSVPadsShortRowsAndDecimalComma(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Year;SMW;Mite;RH\n2019;1;2,5\n"), "x.csv", LoadOptions{Delimiter: ';', Decimal: ','})
	require.NoError(t, err)
	x, ok := ds.Float(0, "Mite")
	require.True(t, ok)
	assert.InDelta(t, 2.5, x, 1e-12)
	_, ok = ds.Float(0, "RH")
	assert.False(t, ok)
}

func TestLoadTSVByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Year\tSMW\tMite\n2019\t1\t3\n"), 0o644))
	ds, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, "obs.tsv", ds.Name())
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.xlsx")
	wb := excelize.NewFile()
	_, err := wb.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("Data", "A1", &[]interface{}{" Year", "SMW ", "Mite", "RH"}))
	require.NoError(t, wb.SetSheetRow("Data", "A2", &[]interface{}{2019, 1, 2.5, 80}))
	require.NoError(t, wb.SetSheetRow("Data", "A3", &[]interface{}{2020, 1, 3.5, 70}))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	ds, err := Load(path, LoadOptions{SheetName: "data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Year", "SMW", "Mite", "RH"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())

	_, err = Load(path, LoadOptions{SheetName: "Nope"})
	var ie *IngestionError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, err.Error(), "available sheets")

	_, err = Load(path, LoadOptions{SheetIndex: 9})
	require.True(t, errors.As(err, &ie))
}

func TestFilterYears(t *testing.T) {
	ds := mustRead(t, sampleCSV)
	assert.Equal(t, []string{"2019", "2020", "2021"}, ds.DistinctYears())

	counts := map[string]int{}
	for _, c := range ds.YearCounts() {
		counts[c.Year] = c.Rows
	}

	cases := [][]string{
		{"2019"},
		{"2020", "2021"},
		{"2019", "2020", "2021"},
		{},
	}
	for _, sel := range cases {
		view := ds.FilterYears(sel)
		want := 0
		in := map[string]bool{}
		for _, y := range sel {
			want += counts[y]
			in[y] = true
		}
		assert.Equal(t, want, view.Len(), "selection %v", sel)
		for i := 0; i < view.Len(); i++ {
			assert.True(t, in[view.Value(i, ColYear)])
		}
	}

	all := ds.FilterYears(ds.DistinctYears())
	assert.Equal(t, ds.Len(), all.Len())
	for i := 0; i < ds.Len(); i++ {
		assert.Equal(t, ds.Row(i), all.Row(i), "row order must be preserved")
	}
}

func TestFilterYearsEmptyViewKeepsSchema(t *testing.T) {
	ds := mustRead(t, sampleCSV)
	view := ds.FilterYears(nil)
	assert.Equal(t, 0, view.Len())
	assert.Equal(t, ds.Columns(), view.Columns())
	assert.Equal(t, KindNumeric, view.Kind("Mite"))
	assert.Empty(t, view.DistinctYears())
}

func TestColumnsReturnsCopy(t *testing.T) {
	ds := mustRead(t, sampleCSV)
	cols := ds.Columns()
	cols[0] = "changed"
	assert.Equal(t, "Year", ds.Columns()[0])
}
