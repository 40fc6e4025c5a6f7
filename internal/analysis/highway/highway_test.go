package highway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// one degree of longitude on the equator is about 69.17 miles
const degreeMiles = 69.17

func networkLinks() *geoio.Layer {
	l := geoio.NewLayer("links", spatial.EPSG4326,
		geoio.IntField(models.FieldID),
		geoio.IntField(models.FieldClass),
		geoio.StringField(models.FieldState, 2),
		geoio.FloatField(models.FieldLength),
	)
	add := func(id, class int, state string, length float64) {
		f := geoio.NewFeature(orb.LineString{{0, float64(id) * 0.01}, {1, float64(id) * 0.01}})
		f.Properties[models.FieldID] = id
		f.Properties[models.FieldClass] = class
		f.Properties[models.FieldState] = state
		f.Properties[models.FieldLength] = length
		l.Add(f)
	}
	add(1, 11, "TX", degreeMiles)
	add(2, 11, "TX", 10) // length disagrees with the geometry
	add(3, 12, "OK", degreeMiles)
	add(4, 11, "OK", degreeMiles) // no flow row
	add(5, 14, "OK", degreeMiles) // null tonnage
	add(6, 11, "NM", degreeMiles) // light flow
	return l
}

func flowTable() *tabular.Table {
	t := tabular.New("flows", "ID",
		TonsColumn(22, models.UnitAll), TripsColumn(22, models.UnitAll),
		TonsColumn(22, models.UnitSU), TripsColumn(22, models.UnitSU),
		TonsColumn(22, models.UnitCU), TripsColumn(22, models.UnitCU),
	)
	_ = t.Append("1", "50000", "1200", "20000", "500", "30000", "700")
	_ = t.Append("2", "20000", "600", "5000", "100", "15000", "500")
	_ = t.Append("3", "40000", "900", "12000", "300", "28000", "600")
	_ = t.Append("5", "", "100", "", "", "", "")
	_ = t.Append("6", "9000", "50", "4000", "20", "5000", "30")
	return t
}

func ids(l *geoio.Layer) []int {
	var out []int
	for _, f := range l.Features {
		id, _ := f.Int(models.FieldID)
		out = append(out, id)
	}
	return out
}

func TestColumnNames(t *testing.T) {
	assert.Equal(t, "TOT Tons_22 All", TonsColumn(22, models.UnitAll))
	assert.Equal(t, "TOT Trips_22 CU", TripsColumn(22, models.UnitCU))
	assert.Equal(t, "TOT Tons_07 SU", TonsColumn(7, models.UnitSU))
}

func TestJoinAllClasses(t *testing.T) {
	out, st, err := Join(networkLinks(), flowTable(), Options{Year: 22, Unit: models.UnitAll, MinTons: 10000, LengthTolerance: 0.05})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, ids(out))
	assert.Equal(t, Stats{Links: 6, Unmatched: 2, BelowMin: 1, LengthMismatch: 1, Kept: 3}, st)

	for _, f := range out.Features {
		tons, ok := f.Float(models.FieldTotTons)
		require.True(t, ok, "retained links carry tonnage")
		assert.Greater(t, tons, 10000.0)
	}

	link := Link(out.Features[1])
	assert.Equal(t, 2, link.ID)
	assert.Equal(t, models.RoadInterstate, link.Class)
	assert.Equal(t, "TX", link.State)
	assert.InDelta(t, 10, link.LenMiles, 1e-12, "length comes from LENGTH, not the geometry")
	assert.InDelta(t, 600, link.Trips, 1e-12)
}

func TestJoinInterstate(t *testing.T) {
	out, st, err := Join(networkLinks(), flowTable(), Options{Year: 22, Unit: models.UnitAll, Class: models.RoadInterstate, MinTons: 10000})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(out))
	assert.Equal(t, 1, st.OtherClass)
	assert.Zero(t, st.LengthMismatch, "tolerance 0 disables the check")
}

func TestJoinUnitTypes(t *testing.T) {
	out, _, err := Join(networkLinks(), flowTable(), Options{Year: 22, Unit: models.UnitSU, MinTons: 10000})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids(out))

	out, _, err = Join(networkLinks(), flowTable(), Options{Year: 22, Unit: models.UnitCU})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 6}, ids(out))
	assert.InDelta(t, 30000, Link(out.Features[0]).Tons, 1e-9)
}

func TestJoinMissingColumns(t *testing.T) {
	_, _, err := Join(networkLinks(), tabular.New("flows", "ID"), Options{Year: 22, Unit: models.UnitAll})
	assert.ErrorIs(t, err, tabular.ErrUnknownColumn)

	bare := geoio.NewLayer("links", spatial.EPSG4326, geoio.IntField(models.FieldID))
	_, _, err = Join(bare, flowTable(), Options{Year: 22, Unit: models.UnitAll})
	assert.ErrorIs(t, err, geoio.ErrUnknownColumn)
}

func TestStageRun(t *testing.T) {
	dir := t.TempDir()
	p := config.DefaultPipeline()
	p.DataDir = filepath.Join(dir, "data")
	p.GeoJSONDir = filepath.Join(dir, "web")
	p.Inputs.NetworkLinks = "links/links.shp"
	p.Inputs.FlowTable = "flows.csv"

	require.NoError(t, geoio.WriteShapefile(p.Path(p.Inputs.NetworkLinks), networkLinks()))
	require.NoError(t, flowTable().WriteCSV(p.Path(p.Inputs.FlowTable)))

	res, err := New(p).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Outputs, len(variants))

	interstate, err := geoio.ReadShapefile(p.Path(InterstatePath + ".shp"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(interstate))

	nomin, err := geoio.ReadShapefile(filepath.Join(p.DataDir, OutputDir, LayerNoMin+".shp"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 6}, ids(nomin))

	web, err := geoio.ReadGeoJSON(filepath.Join(p.GeoJSONDir, OutputDir, LayerInterstate+".geojson"))
	require.NoError(t, err)
	assert.Equal(t, 2, web.Len())
}
