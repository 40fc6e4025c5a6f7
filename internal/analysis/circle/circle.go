// Package circle identifies the point features within a radius of a
// location.
package circle

import (
	"fmt"
	"log"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Circle is a buffer around a geographic center
type Circle struct {
	Center      orb.Point // lon, lat
	RadiusMiles float64
	Polygon     orb.Polygon // EPSG:3857
}

// Around buffers the center in Web Mercator
func Around(lat, lon, radiusMiles float64) (*Circle, error) {
	if !(radiusMiles > 0) {
		return nil, fmt.Errorf("circle radius must be positive, got %v", radiusMiles)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("center (%v, %v) is not a geographic coordinate", lat, lon)
	}
	center := orb.Point{lon, lat}
	m, err := spatial.ProjectPoint(center, spatial.EPSG4326, spatial.EPSG3857)
	if err != nil {
		return nil, err
	}
	poly, err := spatial.Circle(m, spatial.EPSG3857, spatial.MilesToMeters(radiusMiles), spatial.DefaultCircleSegments)
	if err != nil {
		return nil, err
	}
	return &Circle{Center: center, RadiusMiles: radiusMiles, Polygon: poly}, nil
}

// Layer returns the circle as a one-feature layer in EPSG:4326
func (c *Circle) Layer(name string) (*geoio.Layer, error) {
	g, err := spatial.ProjectGeometry(c.Polygon, spatial.EPSG3857, spatial.EPSG4326)
	if err != nil {
		return nil, err
	}
	l := geoio.NewLayer(name, spatial.EPSG4326,
		geoio.FloatField("Latitude"), geoio.FloatField("Longitude"), geoio.FloatField("Radius_mi"))
	f := geoio.NewFeature(g)
	f.Properties["Latitude"] = c.Center[1]
	f.Properties["Longitude"] = c.Center[0]
	f.Properties["Radius_mi"] = c.RadiusMiles
	l.Add(f)
	return l, nil
}

// Within returns the point features of layer inside the circle, in their
// original CRS. Features that are not points are skipped.
func (c *Circle) Within(layer *geoio.Layer) (*geoio.Layer, error) {
	metric, err := layer.Project(spatial.EPSG3857)
	if err != nil {
		return nil, err
	}
	bound := c.Polygon.Bound()

	out := geoio.NewLayer(layer.Name, layer.CRS, append([]geoio.Field(nil), layer.Fields...)...)
	var skipped int
	for i, f := range metric.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			skipped++
			continue
		}
		if !bound.Contains(p) {
			continue
		}
		in, err := spatial.Contains(c.Polygon, spatial.EPSG3857, p, spatial.EPSG3857)
		if err != nil {
			return nil, err
		}
		if in {
			out.Add(layer.Features[i].Clone())
		}
	}
	if skipped > 0 {
		log.Printf("[Circle] Warning: skipped %d non-point features of %s", skipped, layer.Name)
	}
	return out, nil
}

// Table lists the attributes and coordinates of the features of a layer
func Table(layer *geoio.Layer) (*tabular.Table, error) {
	geo, err := layer.Project(spatial.EPSG4326)
	if err != nil {
		return nil, err
	}
	columns := []string{"Latitude", "Longitude"}
	for _, f := range layer.Fields {
		columns = append(columns, f.Name)
	}
	t := tabular.New(sheetName(layer.Name), columns...)
	for _, f := range geo.Features {
		row := make([]string, 0, len(columns))
		if p, ok := f.Geometry.(orb.Point); ok {
			row = append(row, tabular.FormatFloat(p[1]), tabular.FormatFloat(p[0]))
		} else {
			row = append(row, "", "")
		}
		for _, fld := range layer.Fields {
			row = append(row, strings.TrimSpace(f.String(fld.Name)))
		}
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}
