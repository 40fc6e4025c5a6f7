package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

func balanceTable(rows ...[2]string) *tabular.Table {
	t := tabular.New("balance", "Balancing Authority", "Data Date", "Demand (MW)")
	for _, r := range rows {
		_ = t.Append(r[0], "01/01/2022", r[1])
	}
	return t
}

func TestAuthorityDemands(t *testing.T) {
	first := balanceTable([2]string{"ERCO", "40,000"}, [2]string{"ERCO", "50,000"}, [2]string{"SWPP", "-5"})
	second := balanceTable([2]string{"ERCO", "30000"}, [2]string{"SWPP", "20000"}, [2]string{"SWPP", ""}, [2]string{"", "10"})

	demands, err := AuthorityDemands(first, second)
	require.NoError(t, err)
	require.Len(t, demands, 2)
	assert.Equal(t, AuthorityDemand{Name: "ERCO", Max: 50000, Mean: 40000, Hours: 3}, demands[0])
	assert.Equal(t, AuthorityDemand{Name: "SWPP", Max: 20000, Mean: 20000, Hours: 1}, demands[1])

	_, err = AuthorityDemands(tabular.New("bad", "Balancing Authority"))
	assert.ErrorIs(t, err, tabular.ErrUnknownColumn)

	merged, st, err := JoinAuthorities(boundaries(FieldBA, "ERCO", "MISO"), demands)
	require.NoError(t, err)
	assert.Equal(t, geoio.JoinStats{Matched: 1, Unmatched: 1, UnusedRows: 1}, st)
	require.Equal(t, 1, merged.Len())
	assert.False(t, merged.HasField("NAME"))
	avg, _ := merged.Features[0].Float(FieldAvgDem)
	assert.InDelta(t, 40000, avg, 1e-9)
}

func TestJoinCapacityKeepsEveryState(t *testing.T) {
	merged, st, err := JoinCapacity(boundaries(models.FieldStateAbbr, "TX", "OK", "NM"), map[string]float64{"TX": 125000, "OK": 30000})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Matched)
	require.Equal(t, 3, merged.Len())
	_, ok := merged.Features[2].Float(FieldCapacity)
	assert.False(t, ok)
	mw, _ := merged.Features[0].Float(FieldCapacity)
	assert.Equal(t, 125000.0, mw)
}

func TestDemandStageRun(t *testing.T) {
	p := fixturePipeline(t)
	p.Grid.CapacityYear = 2022
	for i, rows := range [][][2]string{
		{{"ERCO", "40000"}, {"SWPP", "20000"}},
		{{"ERCO", "60000"}},
	} {
		require.NoError(t, balanceTable(rows...).WriteCSV(p.Path(p.Inputs.BADemand[i])))
	}
	require.NoError(t, geoio.WriteShapefile(p.Path(p.Inputs.BABounds), boundaries(FieldBA, "ERCO", "SWPP", "PJM")))

	res, err := NewDemand(p).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)

	areas, err := geoio.ReadShapefile(p.Path(AuthorityPath + ".shp"))
	require.NoError(t, err)
	require.Equal(t, 2, areas.Len())
	assert.Equal(t, "ERCO", areas.Features[0].String(FieldBA))
	peak, _ := areas.Features[0].Float(FieldMaxDem)
	assert.InDelta(t, 60000, peak, 1e-6)

	states, err := geoio.ReadShapefile(p.Path(CapacityPath + ".shp"))
	require.NoError(t, err)
	assert.Equal(t, 2, states.Len())
}

func TestDemandStageWithoutAuthorities(t *testing.T) {
	p := fixturePipeline(t)
	p.Inputs.BADemand = nil

	_, err := NewDemand(p).Run(context.Background(), nil)
	assert.Error(t, err, "2021 capacity is not in the fixture")

	p.Grid.CapacityYear = 2022
	res, err := NewDemand(p).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Outputs, 1)
}
