package charging

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/neighbors"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/queueing"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

var neighborField = neighbors.FieldName(200)

func stopLayer(trips ...float64) *geoio.Layer {
	l := geoio.NewLayer(neighbors.Layer, spatial.EPSG4326,
		geoio.IntField(models.FieldStopID),
		geoio.FloatField(models.FieldTotTrips),
		geoio.IntField(neighborField),
	)
	for i, tr := range trips {
		f := geoio.NewFeature(orb.Point{float64(i), 0})
		f.Properties[models.FieldStopID] = i
		f.Properties[models.FieldTotTrips] = tr
		f.Properties[neighborField] = 3
		l.Add(f)
	}
	return l
}

func TestLayerName(t *testing.T) {
	o := Options{RangeMiles: 200, ChargingTime: 4, MaxWait: 0.5}
	assert.Equal(t, "Truck_Stop_Parking_Along_Interstate_with_min_chargers_range_200.0_chargingtime_4.0_maxwait_0.5", o.LayerName())

	o = Options{RangeMiles: 100, ChargingTime: 0.5, MaxWait: 0.25}
	assert.Equal(t, "Truck_Stop_Parking_Along_Interstate_with_min_chargers_range_100.0_chargingtime_0.5_maxwait_0.25", o.LayerName())
}

func TestSize(t *testing.T) {
	opts := Options{RangeMiles: 200, ChargingTime: 0.5, MaxWait: 1}
	out, st, err := NewSizer(nil).Size(context.Background(), nil, stopLayer(400, 0, 1000), neighborField, opts)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, 3, st.Stops)
	assert.False(t, out.HasField(models.FieldColSave))

	for i, trips := range []float64{400, 0, 1000} {
		f := out.Features[i]
		want, err := queueing.MinChargers(queueing.Params{TripsPerDay: trips, RangeMiles: 200, ChargingTime: 0.5, MaxWait: 1})
		require.NoError(t, err)

		cpd, _ := f.Int(models.FieldCPD)
		n, _ := f.Int(models.FieldMinChargers)
		ratio, _ := f.Float(models.FieldMinRatio)
		assert.Equal(t, want.ChargesPerDay, cpd)
		assert.Equal(t, want.MinChargers, n)
		assert.InDelta(t, want.Ratio, ratio, 1e-12)

		assert.LessOrEqual(t, n, cpd)
		assert.Greater(t, ratio, 0.0)
		assert.LessOrEqual(t, ratio, 1.0)
	}

	cpd, _ := out.Features[0].Int(models.FieldCPD)
	assert.Equal(t, 200, cpd)

	// zero trips clamps to a single charge served by a single charger
	n, _ := out.Features[1].Int(models.FieldMinChargers)
	ratio, _ := out.Features[1].Float(models.FieldMinRatio)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1.0, ratio)
}

func TestSizeHalfFlows(t *testing.T) {
	opts := Options{RangeMiles: 200, ChargingTime: 0.5, MaxWait: 1, HalfFlows: true}
	out, st, err := NewSizer(nil).Size(context.Background(), nil, stopLayer(400), neighborField, opts)
	require.NoError(t, err)

	f := out.Features[0]
	half, err := queueing.MinChargers(queueing.Params{TripsPerDay: 200, RangeMiles: 200, ChargingTime: 0.5, MaxWait: 1})
	require.NoError(t, err)

	halfCPD, _ := f.Int(models.FieldHalfCPD)
	assert.Equal(t, 100, halfCPD)
	halfN, _ := f.Int(models.FieldHalfChargers)
	assert.Equal(t, half.MinChargers, halfN)

	ratio, _ := f.Float(models.FieldMinRatio)
	halfRatio, _ := f.Float(models.FieldHalfRatio)
	save, ok := f.Float(models.FieldColSave)
	require.True(t, ok)
	assert.InDelta(t, 100*(1-ratio/halfRatio), save, 1e-12)
	assert.InDelta(t, save, st.MeanColSave, 1e-12)
}

func TestCollaborationSavings(t *testing.T) {
	assert.InDelta(t, 50, CollaborationSavings(0.05, 0.1), 1e-12)
	assert.InDelta(t, 0, CollaborationSavings(1, 1), 1e-12)
	assert.Equal(t, 0.0, CollaborationSavings(0.5, 0))
}

func TestSizeInvalidInputs(t *testing.T) {
	s := NewSizer(nil)

	_, _, err := s.Size(context.Background(), nil, stopLayer(100), neighborField, Options{RangeMiles: 200, ChargingTime: 0, MaxWait: 1})
	assert.ErrorIs(t, err, queueing.ErrInvalidInput)

	_, _, err = s.Size(context.Background(), nil, stopLayer(-5), neighborField, Options{RangeMiles: 200, ChargingTime: 1, MaxWait: 1})
	assert.ErrorIs(t, err, queueing.ErrInvalidInput)

	layer := stopLayer(100)
	delete(layer.Features[0].Properties, models.FieldTotTrips)
	_, _, err = s.Size(context.Background(), nil, layer, neighborField, Options{RangeMiles: 200, ChargingTime: 1, MaxWait: 1})
	assert.ErrorIs(t, err, queueing.ErrInvalidInput)

	bare := geoio.NewLayer("bare", spatial.EPSG4326)
	_, _, err = s.Size(context.Background(), nil, bare, "", Options{RangeMiles: 200, ChargingTime: 1, MaxWait: 1})
	assert.ErrorIs(t, err, geoio.ErrUnknownColumn)
}

func pipeline(t *testing.T) *config.Pipeline {
	t.Helper()
	dir := t.TempDir()
	p := config.DefaultPipeline()
	p.DataDir = filepath.Join(dir, "data")
	p.GeoJSONDir = filepath.Join(dir, "web")
	require.NoError(t, geoio.WriteShapefile(p.Path(neighbors.Path+".shp"), stopLayer(400, 120, 0)))
	return p
}

func TestStageRun(t *testing.T) {
	p := pipeline(t)
	p.Charging.ChargingTime = 0.5
	p.Charging.MaxWait = 1
	p.Charging.HalfFlows = true

	s := New(p)
	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	out, err := geoio.ReadShapefile(p.Path(LayerPath(s.Options()) + ".shp"))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.True(t, out.HasField(models.FieldColSave))

	web, err := geoio.ReadGeoJSON(filepath.Join(p.GeoJSONDir, LayerPath(s.Options())+".geojson"))
	require.NoError(t, err)
	assert.Equal(t, 3, web.Len())
}

func TestSweepRun(t *testing.T) {
	p := pipeline(t)
	p.Charging.Sweep = config.SweepGrid{
		Ranges:        []float64{100, 200},
		ChargingTimes: []float64{0.5},
		MaxWaits:      []float64{0.25, 1},
	}

	s := NewSweep(p)
	require.Len(t, s.Grid(), 4)

	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 4)

	for _, o := range s.Grid() {
		out, err := geoio.ReadShapefile(p.Path(LayerPath(o) + ".shp"))
		require.NoError(t, err, o.LayerName())
		assert.True(t, out.HasField(models.FieldHalfRatio))
	}

	p.Charging.Sweep = config.SweepGrid{}
	_, err = NewSweep(p).Run(context.Background(), nil)
	assert.ErrorIs(t, err, queueing.ErrInvalidInput)
}
