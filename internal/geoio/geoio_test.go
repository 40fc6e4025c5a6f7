package geoio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

func pointLayer() *Layer {
	layer := NewLayer("stops", spatial.EPSG3857,
		IntField("ID"), StringField("Name", 32), FloatField("Trips"))
	for i, name := range []string{"alpha", "beta", "gamma"} {
		f := NewFeature(orb.Point{float64(i) * 1000, 500})
		f.Properties["ID"] = i + 1
		f.Properties["Name"] = name
		f.Properties["Trips"] = 12.25 * float64(i+1)
		layer.Add(f)
	}
	return layer
}

func TestShapefileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stops.shp")
	require.NoError(t, WriteShapefile(path, pointLayer()))

	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		_, err := os.Stat(filepath.Join(dir, "stops"+ext))
		assert.NoError(t, err, ext)
	}

	layer, err := ReadShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, "stops", layer.Name)
	assert.Equal(t, spatial.EPSG3857, layer.CRS)
	require.Equal(t, 3, layer.Len())
	require.NoError(t, layer.Require("ID", "Name", "Trips"))

	f := layer.Features[1]
	assert.Equal(t, orb.Point{1000, 500}, f.Geometry)
	id, ok := f.Int("ID")
	require.True(t, ok)
	assert.Equal(t, 2, id)
	assert.Equal(t, "beta", f.String("Name"))
	trips, ok := f.Float("Trips")
	require.True(t, ok)
	assert.InDelta(t, 24.5, trips, 1e-9)
}

func TestShapefileDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.shp")
	b := filepath.Join(dir, "b.shp")
	require.NoError(t, WriteShapefile(a, pointLayer()))
	require.NoError(t, WriteShapefile(b, pointLayer()))

	for _, ext := range []string{".shp", ".dbf", ".prj"} {
		da, err := os.ReadFile(filepath.Join(dir, "a"+ext))
		require.NoError(t, err)
		db, err := os.ReadFile(filepath.Join(dir, "b"+ext))
		require.NoError(t, err)
		assert.Equal(t, da, db, ext)
	}
}

func TestShapefilePolygonOrientation(t *testing.T) {
	ccw := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	require.Equal(t, orb.CCW, ccw[0].Orientation())

	layer := NewLayer("states", spatial.EPSG4326, StringField("STUSPS", 2))
	f := NewFeature(ccw)
	f.Properties["STUSPS"] = "TX"
	layer.Add(f)

	path := filepath.Join(t.TempDir(), "states.shp")
	require.NoError(t, WriteShapefile(path, layer))

	got, err := ReadShapefile(path)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	poly, ok := got.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.CW, poly[0].Orientation())
	assert.InDelta(t, 100, math.Abs(planar.Area(poly)), 1e-9)
	assert.Equal(t, "TX", got.Features[0].String("STUSPS"))
	assert.Equal(t, spatial.EPSG4326, got.CRS)
}

func TestShapefileLines(t *testing.T) {
	layer := NewLayer("links", spatial.EPSG3857, IntField("ID"))
	single := NewFeature(orb.LineString{{0, 0}, {100, 0}, {200, 50}})
	single.Properties["ID"] = 1
	multi := NewFeature(orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}})
	multi.Properties["ID"] = 2
	layer.Add(single)
	layer.Add(multi)

	path := filepath.Join(t.TempDir(), "links.shp")
	require.NoError(t, WriteShapefile(path, layer))

	got, err := ReadShapefile(path)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, orb.LineString{{0, 0}, {100, 0}, {200, 50}}, got.Features[0].Geometry)
	mls, ok := got.Features[1].Geometry.(orb.MultiLineString)
	require.True(t, ok)
	assert.Len(t, mls, 2)
}

func TestShapefileFieldNames(t *testing.T) {
	assert.Equal(t, "Half_Charg", DBFName("Half_Charges"))
	assert.Equal(t, "Natural Ga", DBFName("Natural Gas"))
	assert.Equal(t, "CPD", DBFName("CPD"))

	layer := NewLayer("bad", spatial.EPSG3857, IntField("Renewable Diesel"), IntField("Renewable Fuels"))
	layer.Add(NewFeature(orb.Point{0, 0}))
	err := WriteShapefile(filepath.Join(t.TempDir(), "bad.shp"), layer)
	assert.True(t, errors.Is(err, ErrFieldName))
}

func TestReadShapefileMissing(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}

func TestGeoJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web", "stops.geojson")
	require.NoError(t, WriteGeoJSON(path, pointLayer()))

	layer, err := ReadGeoJSON(path)
	require.NoError(t, err)
	assert.Equal(t, spatial.EPSG4326, layer.CRS)
	require.Equal(t, 3, layer.Len())

	names := make([]string, len(layer.Fields))
	for i, f := range layer.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"ID", "Name", "Trips"}, names)

	p, ok := layer.Features[2].Geometry.(orb.Point)
	require.True(t, ok)
	want, err := spatial.ProjectPoint(orb.Point{2000, 500}, spatial.EPSG3857, spatial.EPSG4326)
	require.NoError(t, err)
	assert.InDelta(t, want[0], p[0], 1e-9)
	assert.InDelta(t, want[1], p[1], 1e-9)
	assert.Equal(t, "gamma", layer.Features[2].String("Name"))
}

func zigzag() *Layer {
	var ls orb.LineString
	for i := 0; i <= 100; i++ {
		offset := 0.0
		if i%2 == 1 {
			offset = 0.0001
		}
		ls = append(ls, orb.Point{-100 + 0.01*float64(i), 40 + offset})
	}
	layer := NewLayer("road", spatial.EPSG4326, IntField("ID"), StringField("Class", 16))
	f := NewFeature(ls)
	f.Properties["ID"] = 1
	f.Properties["Class"] = "interstate"
	layer.Add(f)
	return layer
}

func TestSimplify(t *testing.T) {
	layer := zigzag()
	layer.Add(NewFeature(orb.Point{-99.5, 40.5}))
	out, err := Simplify(layer, DefaultTolerance, []string{"ID"})
	require.NoError(t, err)
	assert.Equal(t, spatial.EPSG4326, out.CRS)
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "ID", out.Fields[0].Name)
	_, hasClass := out.Features[0].Properties["Class"]
	assert.False(t, hasClass)

	ls, ok := out.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, 2)

	p, ok := out.Features[1].Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, -99.5, p[0], 1e-9)
	assert.InDelta(t, 40.5, p[1], 1e-9)
}

func TestSimplifyIdempotent(t *testing.T) {
	square := orb.Polygon{{{-100, 40}, {-99, 40}, {-99, 41}, {-100, 41}, {-100, 40}}}
	layer := zigzag()
	poly := NewFeature(square)
	poly.Properties["ID"] = 2
	layer.Add(poly)

	once, err := Simplify(layer, DefaultTolerance, nil)
	require.NoError(t, err)
	twice, err := Simplify(once, DefaultTolerance, nil)
	require.NoError(t, err)

	require.Equal(t, once.Len(), twice.Len())
	for i := range once.Features {
		a := once.Features[i].Geometry
		b := twice.Features[i].Geometry
		require.Equal(t, a.GeoJSONType(), b.GeoJSONType())
		assert.InDelta(t, a.Bound().Min[0], b.Bound().Min[0], 1e-9)
		assert.InDelta(t, a.Bound().Max[1], b.Bound().Max[1], 1e-9)
	}

	ring := twice.Features[1].Geometry.(orb.Polygon)[0]
	assert.Len(t, ring, 5)
	assert.Len(t, twice.Features[0].Geometry.(orb.LineString), 2)
}

func TestOutputWrite(t *testing.T) {
	dir := t.TempDir()
	out := Output{
		ShapefileDir: filepath.Join(dir, "shp"),
		GeoJSONDir:   filepath.Join(dir, "web"),
	}

	w, err := out.Write(zigzag(), "highway/links", []string{"ID"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shp", "highway", "links.shp"), w.Shapefile)
	assert.Equal(t, filepath.Join(dir, "web", "highway", "links.geojson"), w.GeoJSON)

	layer, err := ReadGeoJSON(w.GeoJSON)
	require.NoError(t, err)
	assert.Equal(t, 1, layer.Len())

	w, err = Output{ShapefileDir: dir}.Write(pointLayer(), "only_shp", nil)
	require.NoError(t, err)
	assert.Empty(t, w.GeoJSON)

	mixed := zigzag()
	mixed.Add(NewFeature(orb.Point{0, 0}))
	_, err = out.Write(mixed, "mixed", nil)
	assert.True(t, errors.Is(err, ErrUnsupportedGeometry))
}
