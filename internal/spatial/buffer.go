package spatial

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultCircleSegments is the number of ring vertices used for circular buffers
const DefaultCircleSegments = 64

// Circle buffers a metric point by radius meters and returns the polygon
func Circle(center orb.Point, crs CRS, radius float64, segments int) (orb.Polygon, error) {
	if !crs.IsMetric() {
		return nil, fmt.Errorf("%w: circle buffer in %s", ErrNotMetric, crs)
	}
	if segments < 3 {
		segments = DefaultCircleSegments
	}

	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, orb.Point{
			center[0] + radius*math.Cos(theta),
			center[1] + radius*math.Sin(theta),
		})
	}
	ring = append(ring, ring[0])

	return orb.Polygon{ring}, nil
}

// Contains reports whether p lies inside a polygonal geometry.
// Both operands must share the same CRS.
func Contains(g orb.Geometry, gCRS CRS, p orb.Point, pCRS CRS) (bool, error) {
	if err := Same(gCRS, pCRS); err != nil {
		return false, err
	}

	switch poly := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(poly, p), nil
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(poly, p), nil
	case orb.Ring:
		return planar.RingContains(poly, p), nil
	}
	return false, nil
}
