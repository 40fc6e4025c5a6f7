package circle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

func stops() *geoio.Layer {
	l := geoio.NewLayer("Truck_Stop_Parking", spatial.EPSG4326, geoio.StringField("NAME", 32))
	for _, s := range []struct {
		name string
		pt   orb.Point
	}{
		{"Dallas", orb.Point{-96.8, 32.8}},
		{"Austin", orb.Point{-97.7, 30.3}},
		{"Denver", orb.Point{-104.99, 39.74}},
		{"Seattle", orb.Point{-122.3, 47.6}},
	} {
		f := geoio.NewFeature(s.pt)
		f.Properties["NAME"] = s.name
		l.Add(f)
	}
	return l
}

func names(l *geoio.Layer) []string {
	var out []string
	for _, f := range l.Features {
		out = append(out, f.String("NAME"))
	}
	return out
}

func TestAround(t *testing.T) {
	c, err := Around(33, -97, 600)
	require.NoError(t, err)
	assert.Len(t, c.Polygon[0], spatial.DefaultCircleSegments+1)

	layer, err := c.Layer("circle")
	require.NoError(t, err)
	require.Equal(t, 1, layer.Len())
	assert.Equal(t, spatial.EPSG4326, layer.CRS)
	b := layer.Features[0].Geometry.Bound()
	assert.True(t, b.Contains(orb.Point{-97, 33}))

	_, err = Around(33, -97, 0)
	assert.Error(t, err)
	_, err = Around(95, -97, 10)
	assert.Error(t, err)
}

func TestWithin(t *testing.T) {
	c, err := Around(33, -97, 600)
	require.NoError(t, err)

	in, err := c.Within(stops())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dallas", "Austin"}, names(in))
	assert.Equal(t, spatial.EPSG4326, in.CRS)

	small, err := Around(33, -97, 50)
	require.NoError(t, err)
	in, err = small.Within(stops())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dallas"}, names(in))
}

func TestWithinSkipsLines(t *testing.T) {
	l := geoio.NewLayer("links", spatial.EPSG4326)
	l.Add(geoio.NewFeature(orb.LineString{{-97, 33}, {-96, 33}}))
	c, err := Around(33, -97, 100)
	require.NoError(t, err)
	in, err := c.Within(l)
	require.NoError(t, err)
	assert.Equal(t, 0, in.Len())
}

func TestTable(t *testing.T) {
	tab, err := Table(stops())
	require.NoError(t, err)
	assert.Equal(t, []string{"Latitude", "Longitude", "NAME"}, tab.Columns)
	require.Equal(t, 4, tab.Len())
	assert.Equal(t, "Dallas", tab.Row(0).String("NAME"))
	lat, ok := tab.Row(0).Float("Latitude")
	require.True(t, ok)
	assert.InDelta(t, 32.8, lat, 1e-9)
}

func TestStageRun(t *testing.T) {
	dir := t.TempDir()
	p := config.DefaultPipeline()
	p.DataDir = filepath.Join(dir, "data")
	p.GeoJSONDir = filepath.Join(dir, "web")
	p.Circle.Name = "dfw"
	p.Circle.RadiusMiles = 50
	require.NoError(t, geoio.WriteShapefile(p.Path(p.Circle.Layers[0]), stops()))

	res, err := New(p).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)
	require.Len(t, res.Files, 1)

	in, err := geoio.ReadShapefile(p.Path(WithinPath("Truck_Stop_Parking", "dfw") + ".shp"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Dallas"}, names(in))

	circle, err := geoio.ReadShapefile(p.Path(CirclePath("dfw") + ".shp"))
	require.NoError(t, err)
	assert.Equal(t, 1, circle.Len())

	info, err := tabular.ReadXLSX(res.Files[0], "Truck_Stop_Parking", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Len())
}
