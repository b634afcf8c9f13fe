package dataset

// YearCount is the number of rows observed for one Year value.
type YearCount struct {
	Year string
	Rows int
}

// DistinctYears returns the distinct Year values in order of first appearance.
func (d *Dataset) DistinctYears() []string {
	counts := d.YearCounts()
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Year
	}
	return out
}

// YearCounts returns row counts per Year value in order of first appearance.
func (d *Dataset) YearCounts() []YearCount {
	j := d.index[ColYear]
	pos := map[string]int{}
	var out []YearCount
	for _, row := range d.rows {
		y := row[j]
		if k, ok := pos[y]; ok {
			out[k].Rows++
			continue
		}
		pos[y] = len(out)
		out = append(out, YearCount{Year: y, Rows: 1})
	}
	return out
}

// FilterYears returns the view of rows whose Year is in selected, in file
// order. An empty selection yields a zero-row view with the same columns.
func (d *Dataset) FilterYears(selected []string) *Dataset {
	want := make(map[string]struct{}, len(selected))
	for _, y := range selected {
		want[y] = struct{}{}
	}
	j := d.index[ColYear]
	keep := make([]int, 0, len(d.rows))
	for i, row := range d.rows {
		if _, ok := want[row[j]]; ok {
			keep = append(keep, i)
		}
	}
	return d.derive(keep)
}
