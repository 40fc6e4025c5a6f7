package neighbors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/corridor"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// stops along the equator one degree (about 69 miles) apart
func line(n int) []orb.Point {
	pts := make([]orb.Point, n)
	for i := range pts {
		pts[i] = orb.Point{float64(i), 0}
	}
	return pts
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "N_in_200mi", FieldName(200))
	assert.Equal(t, "N_in_50mi", FieldName(50))
	assert.Equal(t, "N_in_1000m", FieldName(1000), "truncated to a DBF name")
}

func TestCount(t *testing.T) {
	counts, err := Count(context.Background(), nil, line(6), 200, 1)
	require.NoError(t, err)
	// 200 miles reaches two degrees either side
	assert.Equal(t, []int{2, 3, 4, 4, 3, 2}, counts)
}

func TestCountParallelMatchesSequential(t *testing.T) {
	var pts []orb.Point
	for lon := -100.0; lon < -90; lon += 0.7 {
		for lat := 30.0; lat < 40; lat += 0.9 {
			pts = append(pts, orb.Point{lon, lat})
		}
	}

	want, err := Count(context.Background(), nil, pts, 200, 1)
	require.NoError(t, err)
	for _, workers := range []int{0, 2, 7, 1000} {
		got, err := Count(context.Background(), nil, pts, 200, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}

	for i, n := range want {
		assert.GreaterOrEqual(t, n, 0, "stop %d", i)
	}
}

func TestCountEdgeCases(t *testing.T) {
	counts, err := Count(context.Background(), nil, nil, 200, 0)
	require.NoError(t, err)
	assert.Empty(t, counts)

	counts, err = Count(context.Background(), nil, []orb.Point{{0, 0}, {0, 0}}, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, counts, "coincident stops count each other")

	_, err = Count(context.Background(), nil, line(2), 0, 0)
	assert.Error(t, err)
}

func TestCountCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Count(ctx, nil, line(10), 200, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageRun(t *testing.T) {
	dir := t.TempDir()
	p := config.DefaultPipeline()
	p.DataDir = filepath.Join(dir, "data")
	p.GeoJSONDir = ""

	stops := geoio.NewLayer(corridor.LayerAlongInterstate, spatial.EPSG4326,
		geoio.IntField(models.FieldStopID), geoio.FloatField(models.FieldTotTrips))
	for i, pt := range line(4) {
		f := geoio.NewFeature(pt)
		f.Properties[models.FieldStopID] = i
		f.Properties[models.FieldTotTrips] = 100.0
		stops.Add(f)
	}
	require.NoError(t, geoio.WriteShapefile(p.Path(corridor.AlongInterstatePath+".shp"), stops))

	res, err := New(p).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "N_in_200mi", res.Summary["field"])

	out, err := geoio.ReadShapefile(p.Path(Path + ".shp"))
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())
	for i, want := range []int{2, 3, 3, 2} {
		n, ok := out.Features[i].Int("N_in_200mi")
		require.True(t, ok)
		assert.Equal(t, want, n)
	}
}
