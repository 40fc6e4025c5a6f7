package spatial

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"github.com/tidwall/rtree"
)

// Match is a candidate returned by an index query
type Match struct {
	Index    int     // position of the geometry in the slice the index was built from
	Distance float64 // meters
}

// LineIndex answers point-to-line distance queries over a set of line
// geometries in a metric CRS. Nil geometries are skipped.
type LineIndex struct {
	crs   CRS
	lines []orb.Geometry
	tree  rtree.RTreeG[int]
}

// NewLineIndex builds an R-tree over the bounds of the given lines
func NewLineIndex(crs CRS, lines []orb.Geometry) (*LineIndex, error) {
	if !crs.IsMetric() {
		return nil, fmt.Errorf("%w: line index in %s", ErrNotMetric, crs)
	}

	ix := &LineIndex{crs: crs, lines: lines}
	for i, g := range lines {
		if g == nil {
			continue
		}
		b := g.Bound()
		ix.tree.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, i)
	}
	return ix, nil
}

// Len returns the number of indexed lines
func (ix *LineIndex) Len() int {
	return ix.tree.Len()
}

// CRS returns the reference system of the indexed lines
func (ix *LineIndex) CRS() CRS {
	return ix.crs
}

// WithinDistance returns every line whose distance to p is at most d,
// sorted by distance then index. p must be in the index CRS.
func (ix *LineIndex) WithinDistance(p orb.Point, crs CRS, d float64) ([]Match, error) {
	if err := Same(ix.crs, crs); err != nil {
		return nil, err
	}

	var matches []Match
	min := [2]float64{p[0] - d, p[1] - d}
	max := [2]float64{p[0] + d, p[1] + d}
	ix.tree.Search(min, max, func(_, _ [2]float64, i int) bool {
		dist := planar.DistanceFrom(ix.lines[i], p)
		if dist <= d {
			matches = append(matches, Match{Index: i, Distance: dist})
		}
		return true
	})

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Distance != matches[b].Distance {
			return matches[a].Distance < matches[b].Distance
		}
		return matches[a].Index < matches[b].Index
	})
	return matches, nil
}

// Nearest returns the closest line within d of p
func (ix *LineIndex) Nearest(p orb.Point, crs CRS, d float64) (Match, bool, error) {
	matches, err := ix.WithinDistance(p, crs, d)
	if err != nil || len(matches) == 0 {
		return Match{}, false, err
	}
	return matches[0], true, nil
}

type indexedPoint struct {
	p  orb.Point
	id int
}

func (ip indexedPoint) Point() orb.Point { return ip.p }

// PointIndex answers great-circle radius queries over geographic points
type PointIndex struct {
	tree   *quadtree.Quadtree
	points []orb.Point
}

// NewPointIndex builds a quadtree over lon/lat points
func NewPointIndex(points []orb.Point) (*PointIndex, error) {
	ix := &PointIndex{points: points}
	if len(points) == 0 {
		return ix, nil
	}

	bound := orb.MultiPoint(points).Bound().Pad(1e-6)
	ix.tree = quadtree.New(bound)
	for i, p := range points {
		if err := ix.tree.Add(indexedPoint{p: p, id: i}); err != nil {
			return nil, fmt.Errorf("failed to index point %d: %w", i, err)
		}
	}
	return ix, nil
}

// Len returns the number of indexed points
func (ix *PointIndex) Len() int {
	return len(ix.points)
}

// InRadius returns the indices of points within meters of center, sorted by index.
// The quadtree is queried with a bounding box, then each candidate is checked
// against the true great-circle distance.
func (ix *PointIndex) InRadius(center orb.Point, meters float64) []int {
	if ix.tree == nil {
		return nil
	}

	var ids []int
	candidates := ix.tree.InBound(nil, GeographicBound(center, meters))
	for _, c := range candidates {
		ip := c.(indexedPoint)
		if GreatCircleMeters(center, ip.p) <= meters {
			ids = append(ids, ip.id)
		}
	}
	sort.Ints(ids)
	return ids
}
