package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
)

func execute(t *testing.T, args ...string) (*env, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("GEOJSON_DIR", filepath.Join(dir, "web"))
	t.Setenv("DB_PATH", filepath.Join(dir, "ledger", "pipeline.db"))
	t.Setenv("PIPELINE_CONFIG", "")

	cfgPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("charging:\n  range_miles: 150\n"), 0o644))

	e := &env{}
	root := newRootCmd(e)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	t.Cleanup(func() {
		if e.db != nil {
			e.db.Close()
		}
	})
	return e, err
}

func TestStagesCommand(t *testing.T) {
	_, err := execute(t, "stages")
	assert.NoError(t, err)
}

func TestMissingInputsFail(t *testing.T) {
	e, err := execute(t, "join-flows")
	require.Error(t, err)
	require.NotNil(t, e.db)

	runs, err := repository.NewStageRunRepository(e.db).List(models.StageRunFilters{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "join-flows", runs[0].Stage)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].ErrorMessage)
}

func TestSizeChargersFlags(t *testing.T) {
	e, err := execute(t, "--no-ledger", "size-chargers", "-c", "2", "-m", "0.5", "--half-flows")
	require.Error(t, err)
	assert.Nil(t, e.db)

	c := e.pipeline.Charging
	assert.Equal(t, 2.0, c.ChargingTime)
	assert.Equal(t, 0.5, c.MaxWait)
	assert.Equal(t, 150.0, c.RangeMiles, "unset flags keep the config value")
	assert.True(t, c.HalfFlows)
}

func TestCircleFlags(t *testing.T) {
	e, err := execute(t, "--no-ledger", "circle", "-a", "40.5", "-o", "-105", "-r", "50", "-n", "denver")
	require.Error(t, err)

	c := e.pipeline.Circle
	assert.Equal(t, 40.5, c.Latitude)
	assert.Equal(t, -105.0, c.Longitude)
	assert.Equal(t, 50.0, c.RadiusMiles)
	assert.Equal(t, "denver", c.Name)
	assert.Equal(t, []string{"Truck_Stop_Parking/Truck_Stop_Parking.shp"}, c.Layers)
}

func TestRunsCommand(t *testing.T) {
	_, err := execute(t, "runs", "--json")
	assert.NoError(t, err)

	_, err = execute(t, "--no-ledger", "runs")
	assert.Error(t, err)
}

func TestPriceDemandLoadAndLifecycleCommands(t *testing.T) {
	for _, name := range []string{"grid-demand", "rates", "charging-load", "lca"} {
		_, err := execute(t, "--no-ledger", name)
		assert.Error(t, err, name)
		assert.NotContains(t, err.Error(), "unknown command", name)
	}
}
