package spatial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// CRS identifies the coordinate reference system of a layer
type CRS string

// Supported reference systems
const (
	EPSG4326 CRS = "EPSG:4326" // geographic lon/lat, output CRS
	EPSG3857 CRS = "EPSG:3857" // web mercator meters, distance work
)

var (
	// ErrCRSMismatch is returned when two operands are in different reference systems
	ErrCRSMismatch = errors.New("mismatched CRS")
	// ErrUnsupportedCRS is returned for reference systems other than 4326 and 3857
	ErrUnsupportedCRS = errors.New("unsupported CRS")
	// ErrNotMetric is returned when a metric CRS is required
	ErrNotMetric = errors.New("operation requires a metric CRS")
)

const wktWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

const wktWebMercator = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",` + wktWGS84 +
	`,PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],` +
	`PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`

// ParseCRS parses an "EPSG:xxxx" identifier
func ParseCRS(s string) (CRS, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EPSG:4326", "4326", "EPSG:4269", "4269":
		return EPSG4326, nil
	case "EPSG:3857", "3857", "EPSG:900913":
		return EPSG3857, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedCRS, s)
}

// ParsePRJ maps the WKT text of a .prj file to a CRS.
// NAD83 and WGS84 geographic systems are both treated as EPSG:4326.
func ParsePRJ(wkt string) (CRS, error) {
	upper := strings.ToUpper(wkt)
	switch {
	case strings.HasPrefix(strings.TrimSpace(upper), "PROJCS"):
		if strings.Contains(upper, "MERCATOR") {
			return EPSG3857, nil
		}
		return "", fmt.Errorf("%w: %.60s", ErrUnsupportedCRS, wkt)
	case strings.HasPrefix(strings.TrimSpace(upper), "GEOGCS"):
		return EPSG4326, nil
	}
	return "", fmt.Errorf("%w: %.60s", ErrUnsupportedCRS, wkt)
}

// WKT returns the ESRI WKT written to .prj files
func (c CRS) WKT() string {
	if c == EPSG3857 {
		return wktWebMercator
	}
	return wktWGS84
}

// IsMetric reports whether coordinates are in meters
func (c CRS) IsMetric() bool {
	return c == EPSG3857
}

// Same returns ErrCRSMismatch unless both reference systems are equal
func Same(a, b CRS) error {
	if a != b {
		return fmt.Errorf("%w: %s vs %s", ErrCRSMismatch, a, b)
	}
	return nil
}

// Projection returns the point transform from c to target, or nil when no transform is needed
func (c CRS) Projection(target CRS) (orb.Projection, error) {
	switch {
	case c == target:
		return nil, nil
	case c == EPSG4326 && target == EPSG3857:
		return project.WGS84.ToMercator, nil
	case c == EPSG3857 && target == EPSG4326:
		return project.Mercator.ToWGS84, nil
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedCRS, c, target)
}

// ProjectGeometry returns a copy of g transformed from one CRS to another
func ProjectGeometry(g orb.Geometry, from, to CRS) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	proj, err := from.Projection(to)
	if err != nil {
		return nil, err
	}
	clone := orb.Clone(g)
	if proj == nil {
		return clone, nil
	}
	return project.Geometry(clone, proj), nil
}

// ProjectPoint transforms a single point
func ProjectPoint(p orb.Point, from, to CRS) (orb.Point, error) {
	proj, err := from.Projection(to)
	if err != nil {
		return orb.Point{}, err
	}
	if proj == nil {
		return p, nil
	}
	return proj(p), nil
}
