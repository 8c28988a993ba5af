package panel

import (
	"fmt"
	"sort"

	"github.com/venicegeo/bf-mosaiks/pipeline"
)

// Panel is the mean feature vector of the points of one region and year
type Panel struct {
	Region   string
	Year     int
	Count    int
	Features []float64
}

type key struct {
	region string
	year   int
}

// Aggregate averages features per (region, year). Points without features do
// not count; groups left empty are dropped. Panels are sorted by region then
// year.
func Aggregate(rows []pipeline.PointFeatures) ([]Panel, error) {
	width := -1
	sums := map[key]*Panel{}
	for _, row := range rows {
		if row.Features == nil {
			continue
		}
		if width < 0 {
			width = len(row.Features)
		} else if len(row.Features) != width {
			return nil, fmt.Errorf("point %s has %d features, expected %d", row.Point.ID, len(row.Features), width)
		}
		k := key{region: row.Point.Region, year: row.Point.Year}
		p, ok := sums[k]
		if !ok {
			p = &Panel{Region: k.region, Year: k.year, Features: make([]float64, width)}
			sums[k] = p
		}
		for i, v := range row.Features {
			p.Features[i] += v
		}
		p.Count++
	}

	panels := make([]Panel, 0, len(sums))
	for _, p := range sums {
		for i := range p.Features {
			p.Features[i] /= float64(p.Count)
		}
		panels = append(panels, *p)
	}
	sort.Slice(panels, func(i, j int) bool {
		if panels[i].Region != panels[j].Region {
			return panels[i].Region < panels[j].Region
		}
		return panels[i].Year < panels[j].Year
	})
	return panels, nil
}
