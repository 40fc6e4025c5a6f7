// Package highway joins per-link truck flows onto the freight network links.
package highway

import (
	"fmt"
	"log"
	"math"

	"github.com/paulmach/orb/geo"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// TonsColumn names the flow-table tonnage column for a data year and unit type
func TonsColumn(year int, unit models.UnitType) string {
	return fmt.Sprintf("TOT Tons_%02d %s", year, unit)
}

// TripsColumn names the flow-table trips column for a data year and unit type
func TripsColumn(year int, unit models.UnitType) string {
	return fmt.Sprintf("TOT Trips_%02d %s", year, unit)
}

// Options select which links survive the join
type Options struct {
	Year  int
	Unit  models.UnitType
	Class models.RoadClass // empty keeps every class

	// MinTons keeps links with tonnage strictly above it; 0 disables the cut
	MinTons float64

	// LengthTolerance is the relative mismatch between LENGTH and the
	// measured geodesic length beyond which a link is counted as suspect
	LengthTolerance float64
}

// Stats summarises one join
type Stats struct {
	Links          int `json:"links"`
	Unmatched      int `json:"unmatched"`
	BelowMin       int `json:"below_min"`
	OtherClass     int `json:"other_class"`
	LengthMismatch int `json:"length_mismatch"`
	Kept           int `json:"kept"`
}

// Output schema of a joined link layer
var linkFields = []geoio.Field{
	geoio.IntField(models.FieldID),
	geoio.IntField(models.FieldClass),
	geoio.StringField(models.FieldState, 2),
	geoio.FloatField(models.FieldLenMiles),
	geoio.FloatField(models.FieldTotTons),
	geoio.FloatField(models.FieldTotTrips),
}

type flow struct {
	tons, trips float64
	hasTrips    bool
}

// Join left-joins the flow table onto the links by ID, then drops links
// without tonnage, outside the requested class, or at or below MinTons
func Join(links *geoio.Layer, flows *tabular.Table, opts Options) (*geoio.Layer, Stats, error) {
	var st Stats
	if err := links.Require(models.FieldID, models.FieldClass, models.FieldLength); err != nil {
		return nil, st, err
	}

	tonsCol, tripsCol := TonsColumn(opts.Year, opts.Unit), TripsColumn(opts.Year, opts.Unit)
	if err := flows.Require("ID", tonsCol, tripsCol); err != nil {
		return nil, st, err
	}

	byID := make(map[int]flow, flows.Len())
	var duplicates int
	_ = flows.Each(func(_ int, r tabular.Row) error {
		id, ok := r.Int("ID")
		if !ok {
			return nil
		}
		if _, seen := byID[id]; seen {
			duplicates++
			return nil
		}
		f := flow{tons: math.NaN()}
		if v, ok := r.Float(tonsCol); ok {
			f.tons = v
		}
		f.trips, f.hasTrips = r.Float(tripsCol)
		byID[id] = f
		return nil
	})
	if duplicates > 0 {
		log.Printf("[HighwayJoiner] Ignored %d duplicate flow rows", duplicates)
	}

	out := geoio.NewLayer(links.Name, links.CRS, linkFields...)
	for _, f := range links.Features {
		st.Links++

		id, _ := f.Int(models.FieldID)
		fl, ok := byID[id]
		if !ok || math.IsNaN(fl.tons) {
			st.Unmatched++
			continue
		}

		code, _ := f.Int(models.FieldClass)
		if opts.Class != "" && models.ClassifyRoad(code) != opts.Class {
			st.OtherClass++
			continue
		}
		if opts.MinTons > 0 && fl.tons <= opts.MinTons {
			st.BelowMin++
			continue
		}

		length, _ := f.Float(models.FieldLength)
		if suspectLength(f, links.CRS, length, opts.LengthTolerance) {
			st.LengthMismatch++
		}

		trips := fl.trips
		if !fl.hasTrips {
			trips = 0
		}

		nf := geoio.NewFeature(f.Geometry)
		nf.Properties[models.FieldID] = id
		nf.Properties[models.FieldClass] = code
		nf.Properties[models.FieldState] = f.String(models.FieldState)
		nf.Properties[models.FieldLenMiles] = length
		nf.Properties[models.FieldTotTons] = fl.tons
		nf.Properties[models.FieldTotTrips] = trips
		out.Add(nf)
		st.Kept++
	}

	log.Printf("[HighwayJoiner] Joined %d of %d links (%s %s: %d unmatched, %d other class, %d below %.0f tons, %d length mismatches)",
		st.Kept, st.Links, opts.Unit, classLabel(opts.Class), st.Unmatched, st.OtherClass, st.BelowMin, opts.MinTons, st.LengthMismatch)
	return out, st, nil
}

func classLabel(c models.RoadClass) string {
	if c == "" {
		return "all classes"
	}
	return string(c)
}

// suspectLength compares the LENGTH attribute with the geodesic length of
// the geometry. A non-positive tolerance disables the check.
func suspectLength(f *geoio.Feature, crs spatial.CRS, miles, tolerance float64) bool {
	if tolerance <= 0 || f.Geometry == nil {
		return false
	}
	if miles <= 0 {
		return true
	}
	g, err := spatial.ProjectGeometry(f.Geometry, crs, spatial.EPSG4326)
	if err != nil {
		return true
	}
	measured := spatial.MetersToMiles(geo.Length(g))
	return math.Abs(measured-miles)/miles > tolerance
}

// Link reads a joined link feature
func Link(f *geoio.Feature) models.HighwayLink {
	id, _ := f.Int(models.FieldID)
	code, _ := f.Int(models.FieldClass)
	length, _ := f.Float(models.FieldLenMiles)
	tons, _ := f.Float(models.FieldTotTons)
	trips, _ := f.Float(models.FieldTotTrips)
	return models.HighwayLink{
		ID:        id,
		Class:     models.ClassifyRoad(code),
		ClassCode: code,
		LenMiles:  length,
		Tons:      tons,
		Trips:     trips,
		State:     f.String(models.FieldState),
	}
}
