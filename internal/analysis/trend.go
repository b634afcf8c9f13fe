package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
)

// TrendPoint is one observation of the population on a meteorological week.
type TrendPoint struct {
	SMW  float64
	Mite float64
}

// TrendSeries is the population curve of a single year.
type TrendSeries struct {
	Year   string
	Points []TrendPoint
}

// Peak returns the point with the highest count.
func (s TrendSeries) Peak() (TrendPoint, bool) {
	if len(s.Points) == 0 {
		return TrendPoint{}, false
	}
	best := s.Points[0]
	for _, p := range s.Points[1:] {
		if p.Mite > best.Mite {
			best = p
		}
	}
	return best, true
}

// Trends returns one series per year, in order of first appearance, with
// points sorted by SMW. Rows missing SMW or Mite are skipped.
func Trends(ds *dataset.Dataset) []TrendSeries {
	var out []TrendSeries
	for _, year := range ds.DistinctYears() {
		view := ds.FilterYears([]string{year})
		s := TrendSeries{Year: year}
		smw := view.Floats(dataset.ColSMW)
		mite := view.Floats(dataset.ColMite)
		for i := range smw {
			if math.IsNaN(smw[i]) || math.IsNaN(mite[i]) {
				continue
			}
			s.Points = append(s.Points, TrendPoint{SMW: smw[i], Mite: mite[i]})
		}
		sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].SMW < s.Points[j].SMW })
		out = append(out, s)
	}
	return out
}
