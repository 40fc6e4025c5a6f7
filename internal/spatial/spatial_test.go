package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreatCircleMeters(t *testing.T) {
	// one degree of latitude on the mean sphere
	d := GreatCircleMeters(orb.Point{-100, 40}, orb.Point{-100, 41})
	assert.InDelta(t, 111195, d, 1)

	assert.Equal(t, 0.0, GreatCircleMeters(orb.Point{10, 10}, orb.Point{10, 10}))
	assert.InDelta(t, 1609.34, MilesToMeters(1), 1e-9)
	assert.InDelta(t, 200, MetersToMiles(MilesToMeters(200)), 1e-9)
}

func TestProjectRoundTrip(t *testing.T) {
	p := orb.Point{-97.7431, 30.2672}
	merc, err := ProjectPoint(p, EPSG4326, EPSG3857)
	require.NoError(t, err)
	assert.NotEqual(t, p, merc)

	back, err := ProjectPoint(merc, EPSG3857, EPSG4326)
	require.NoError(t, err)
	assert.InDelta(t, p[0], back[0], 1e-9)
	assert.InDelta(t, p[1], back[1], 1e-9)

	ls := orb.LineString{{0, 0}, {1, 1}}
	g, err := ProjectGeometry(ls, EPSG4326, EPSG3857)
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, ls, "input must not be modified")
	assert.NotEqual(t, ls, g)
}

func TestParsePRJ(t *testing.T) {
	crs, err := ParsePRJ(EPSG3857.WKT())
	require.NoError(t, err)
	assert.Equal(t, EPSG3857, crs)

	crs, err = ParsePRJ(`GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983"]]`)
	require.NoError(t, err)
	assert.Equal(t, EPSG4326, crs)

	_, err = ParsePRJ(`PROJCS["NAD_1983_Albers",PROJECTION["Albers"]]`)
	assert.True(t, errors.Is(err, ErrUnsupportedCRS))
}

func TestLineIndex(t *testing.T) {
	lines := []orb.Geometry{
		orb.LineString{{0, 0}, {10000, 0}},
		orb.LineString{{0, 5000}, {10000, 5000}},
		nil,
	}
	ix, err := NewLineIndex(EPSG3857, lines)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	matches, err := ix.WithinDistance(orb.Point{5000, 800}, EPSG3857, 1000)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)
	assert.InDelta(t, 800, matches[0].Distance, 1e-9)

	m, ok, err := ix.Nearest(orb.Point{5000, 4000}, EPSG3857, 5000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)

	_, ok, err = ix.Nearest(orb.Point{5000, 2500}, EPSG3857, 1000)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ix.WithinDistance(orb.Point{0, 0}, EPSG4326, 1000)
	assert.True(t, errors.Is(err, ErrCRSMismatch))

	_, err = NewLineIndex(EPSG4326, lines)
	assert.True(t, errors.Is(err, ErrNotMetric))
}

func TestLineIndexEmpty(t *testing.T) {
	ix, err := NewLineIndex(EPSG3857, nil)
	require.NoError(t, err)
	matches, err := ix.WithinDistance(orb.Point{0, 0}, EPSG3857, 1000)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPointIndexInRadius(t *testing.T) {
	points := []orb.Point{
		{-100, 40},
		{-100, 41},  // ~111 km north
		{-100, 43},  // ~333 km north
		{-98.7, 40}, // ~111 km east at 40N
	}
	ix, err := NewPointIndex(points)
	require.NoError(t, err)

	ids := ix.InRadius(points[0], 120000)
	assert.Equal(t, []int{0, 1, 3}, ids)

	ids = ix.InRadius(points[0], 400000)
	assert.Equal(t, []int{0, 1, 2, 3}, ids)

	empty, err := NewPointIndex(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.InRadius(orb.Point{0, 0}, 1e6))
}

func TestPointIndexInRadiusLongitudeEdge(t *testing.T) {
	radius := MilesToMeters(200)
	for _, lat := range []float64{0, 30, 45, 60, 75} {
		center := orb.Point{-100, lat}

		// the easternmost point of a cap at 99.99% of the radius
		r := 0.9999 * radius / EarthRadiusMeters
		phi := lat * math.Pi / 180
		edgeLat := math.Asin(math.Sin(phi) / math.Cos(r))
		dLon := math.Asin(math.Sin(r) / math.Cos(phi))
		edge := orb.Point{center.Lon() + dLon*180/math.Pi, edgeLat * 180 / math.Pi}
		require.InDelta(t, 0.9999*radius, GreatCircleMeters(center, edge), 1, "lat %v", lat)

		bound := GeographicBound(center, radius)
		assert.True(t, bound.Contains(edge), "lat %v", lat)

		ix, err := NewPointIndex([]orb.Point{center, edge})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, ix.InRadius(center, radius), "lat %v", lat)
	}
}

func TestGeographicBoundNearPole(t *testing.T) {
	b := GeographicBound(orb.Point{10, 89}, MilesToMeters(200))
	assert.Equal(t, -170.0, b.Min.Lon())
	assert.Equal(t, 190.0, b.Max.Lon())
	assert.Equal(t, 90.0, b.Max.Lat())
}

func TestCircleContains(t *testing.T) {
	circle, err := Circle(orb.Point{0, 0}, EPSG3857, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, circle[0], DefaultCircleSegments+1)

	in, err := Contains(circle, EPSG3857, orb.Point{500, 500}, EPSG3857)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = Contains(circle, EPSG3857, orb.Point{900, 900}, EPSG3857)
	require.NoError(t, err)
	assert.False(t, in)

	_, err = Contains(circle, EPSG3857, orb.Point{0, 0}, EPSG4326)
	assert.True(t, errors.Is(err, ErrCRSMismatch))

	_, err = Circle(orb.Point{0, 0}, EPSG4326, 1000, 16)
	assert.True(t, errors.Is(err, ErrNotMetric))
}
