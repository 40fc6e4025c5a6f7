package survey

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/vius"
)

func TestStageRun(t *testing.T) {
	p := config.DefaultPipeline()
	p.DataDir = t.TempDir()
	p.VIUS.XLSX = true
	p.VIUS.HistogramBins = 4

	tab := tabular.New("vius", vius.ColWeightAvg, vius.ColWeightEmpty, vius.ColMilesAnnual, vius.ColFuel,
		vius.ColAdmState, vius.ColMPG, vius.ColPassengers, "PPAPER")
	require.NoError(t, tab.Append("50000", "30000", "100000", "2", "48", "55", "", "80"))
	require.NoError(t, tab.Append("25000", "15000", "20000", "1", "6", "80", "", ""))
	require.NoError(t, tab.WriteCSV(p.Path(p.Inputs.VIUS)))

	res, err := New(p).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Files, 7)
	assert.Equal(t, 2, res.Summary["records"])

	payload, err := tabular.ReadCSV(filepath.Join(p.Path(p.VIUS.OutputDir), vius.TablePayload+".csv"))
	require.NoError(t, err)
	assert.Equal(t, "all", payload.Row(0).String("commodity"))

	_, err = tabular.ReadXLSX(res.Files[6], vius.TableClassDistribution, 1)
	assert.NoError(t, err)
}

func TestStageMissingInput(t *testing.T) {
	p := config.DefaultPipeline()
	p.DataDir = t.TempDir()
	_, err := New(p).Run(context.Background(), nil)
	assert.Error(t, err)
}
