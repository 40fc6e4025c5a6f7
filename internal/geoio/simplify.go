package geoio

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// DefaultTolerance is the Douglas-Peucker threshold in Web Mercator meters
const DefaultTolerance = 1000.0

// Simplify returns a copy of the layer in EPSG:4326 with line and polygon
// geometries simplified in EPSG:3857 and only the named columns kept.
// Points are left as they are. A ring that would collapse keeps its original
// vertices.
func Simplify(layer *Layer, tolerance float64, columns []string) (*Layer, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	merc, err := layer.Select(columns).Project(spatial.EPSG3857)
	if err != nil {
		return nil, err
	}

	dp := simplify.DouglasPeucker(tolerance)
	for _, f := range merc.Features {
		f.Geometry = simplifyGeometry(dp, f.Geometry)
	}

	return merc.Project(spatial.EPSG4326)
}

func simplifyGeometry(dp *simplify.DouglasPeuckerSimplifier, g orb.Geometry) orb.Geometry {
	switch v := g.(type) {
	case orb.LineString:
		return dp.LineString(v)
	case orb.MultiLineString:
		return dp.MultiLineString(v)
	case orb.Polygon:
		return simplifyPolygon(dp, v)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			out[i] = simplifyPolygon(dp, p)
		}
		return out
	}
	return g
}

func simplifyPolygon(dp *simplify.DouglasPeuckerSimplifier, p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p))
	for i, r := range p {
		s := dp.Ring(append(orb.Ring(nil), r...))
		if len(s) < 4 {
			if i > 0 {
				continue
			}
			s = r
		}
		out = append(out, s)
	}
	return out
}
