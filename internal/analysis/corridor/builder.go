// Package corridor selects the truck stops that serve the interstate
// network and attributes each one with the flow of its nearest link.
package corridor

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// Stats summarises the proximity filter
type Stats struct {
	Stops   int `json:"stops"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// AlongCorridor keeps the stops within buffer meters (EPSG:3857) of any
// link and copies the trips/day of the nearest such link onto each one.
// Kept stops carry StopID, their position in the input layer, and are
// returned in EPSG:4326.
func AlongCorridor(stops, links *geoio.Layer, buffer float64) (*geoio.Layer, Stats, error) {
	st := Stats{Stops: stops.Len()}
	if err := links.Require(models.FieldTotTrips); err != nil {
		return nil, st, err
	}

	metric, err := links.Project(spatial.EPSG3857)
	if err != nil {
		return nil, st, fmt.Errorf("failed to project links: %w", err)
	}
	ix, err := spatial.NewLineIndex(spatial.EPSG3857, metric.Geometries())
	if err != nil {
		return nil, st, err
	}

	trips := make([]float64, links.Len())
	for i, f := range links.Features {
		trips[i], _ = f.Float(models.FieldTotTrips)
	}

	out := geoio.NewLayer(stops.Name, spatial.EPSG4326, stops.Fields...)
	out.SetField(geoio.IntField(models.FieldStopID))
	out.SetField(geoio.FloatField(models.FieldTotTrips))

	for i, f := range stops.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, st, fmt.Errorf("%w: truck stop %d is %T", geoio.ErrUnsupportedGeometry, i, f.Geometry)
		}
		mp, err := spatial.ProjectPoint(pt, stops.CRS, spatial.EPSG3857)
		if err != nil {
			return nil, st, fmt.Errorf("failed to project truck stop %d: %w", i, err)
		}

		m, found, err := ix.Nearest(mp, spatial.EPSG3857, buffer)
		if err != nil {
			return nil, st, err
		}
		if !found {
			log.Printf("[Corridor] Warning: truck stop %d has no interstate link within %.0f m, dropping", i, buffer)
			st.Dropped++
			continue
		}

		geo, err := spatial.ProjectPoint(pt, stops.CRS, spatial.EPSG4326)
		if err != nil {
			return nil, st, fmt.Errorf("failed to project truck stop %d: %w", i, err)
		}
		nf := f.Clone()
		nf.Geometry = geo
		nf.Properties[models.FieldStopID] = i
		nf.Properties[models.FieldTotTrips] = trips[m.Index]
		out.Add(nf)
		st.Kept++
	}

	log.Printf("[Corridor] Kept %d of %d truck stops within %.0f m of %d links (%d dropped)",
		st.Kept, st.Stops, buffer, ix.Len(), st.Dropped)
	return out, st, nil
}

// Stop reads a corridor stop feature
func Stop(f *geoio.Feature) models.TruckStop {
	id, _ := f.Int(models.FieldStopID)
	trips, _ := f.Float(models.FieldTotTrips)
	return models.TruckStop{ID: id, TripsPerDay: trips}
}

// Points returns the stop positions of a geographic point layer
func Points(l *geoio.Layer) ([]orb.Point, error) {
	if l.CRS != spatial.EPSG4326 {
		projected, err := l.Project(spatial.EPSG4326)
		if err != nil {
			return nil, err
		}
		l = projected
	}
	pts := make([]orb.Point, len(l.Features))
	for i, f := range l.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("%w: feature %d of %s is %T", geoio.ErrUnsupportedGeometry, i, l.Name, f.Geometry)
		}
		pts[i] = p
	}
	return pts, nil
}

// Subset returns a layer holding the features at the given indices
func Subset(l *geoio.Layer, indices []int) *geoio.Layer {
	out := geoio.NewLayer(l.Name, l.CRS, l.Fields...)
	for _, i := range indices {
		out.Add(l.Features[i].Clone())
	}
	return out
}
