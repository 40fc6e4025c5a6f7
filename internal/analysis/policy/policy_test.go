package policy

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

func writeCategory(t *testing.T, dir, key string, rows ...[]string) {
	t.Helper()
	tab := tabular.New(key, ColState, ColName, ColTypes)
	for _, r := range rows {
		require.NoError(t, tab.Append(r...))
	}
	require.NoError(t, tab.WriteCSV(filepath.Join(dir, key+".csv")))
}

func fixtureDir(t *testing.T, dir string) {
	t.Helper()
	writeCategory(t, dir, "vehicle_purchase_incentives",
		[]string{"Texas", "Program X", "Electricity, Hydrogen"},
		[]string{"Texas", "Fleet Grant", "Natural Gas"},
		[]string{"California", "HVIP", "Electricity"},
	)
	writeCategory(t, dir, "fuel_use_incentives",
		[]string{"Texas", "Fleet Grant", "Propane"},
		[]string{"Oklahoma", "Biodiesel Credit", "Biodiesel, Renewable Diesel"},
		[]string{"Atlantis", "Lost", "Ethanol"},
	)
	writeCategory(t, dir, "emissions_incentives",
		[]string{"Texas", "Program X", ""},
		[]string{"California", "Clean Trucks", ""},
	)
	writeCategory(t, dir, "infrastructure_regulations",
		[]string{"California", "Charger Rule", "Electricity"},
	)
	writeCategory(t, dir, "emissions_regulations",
		[]string{"California", "ACF", ""},
	)
}

func loadViews(t *testing.T) map[string][]Record {
	t.Helper()
	dir := t.TempDir()
	fixtureDir(t, dir)
	tables, err := ReadCategories(dir)
	require.NoError(t, err)
	require.Len(t, tables, 5)
	return Aggregate(tables)
}

func find(recs []Record, state, name string) (Record, int) {
	var found Record
	n := 0
	for _, r := range recs {
		if r.State == state && r.Name == name {
			found = r
			n++
		}
	}
	return found, n
}

func TestReadCategoriesNormalizesStates(t *testing.T) {
	dir := t.TempDir()
	fixtureDir(t, dir)
	tables, err := ReadCategories(dir)
	require.NoError(t, err)

	fuel := tables["fuel_use_incentives"]
	require.Len(t, fuel, 2, "unknown states are dropped")
	assert.Equal(t, "TX", fuel[0].State)
	assert.Equal(t, []string{"Biodiesel", "Renewable Diesel"}, fuel[1].Types)
}

func TestEmissionsMerge(t *testing.T) {
	views := loadViews(t)
	all := views["all_incentives"]

	x, n := find(all, "TX", "Program X")
	require.Equal(t, 1, n)
	assert.Equal(t, []string{"Electricity", "Hydrogen", Emissions}, x.Types)
	assert.Contains(t, x.TypesString(), "Electricity")
	assert.Contains(t, x.TypesString(), "Emissions")

	clean, n := find(all, "CA", "Clean Trucks")
	require.Equal(t, 1, n)
	assert.Equal(t, []string{Emissions}, clean.Types)
}

func TestDedupeUnionsTypes(t *testing.T) {
	views := loadViews(t)
	grant, n := find(views["all_incentives"], "TX", "Fleet Grant")
	require.Equal(t, 1, n)
	// fuel_use sorts before vehicle_purchase
	assert.Equal(t, []string{"Propane", "Natural Gas"}, grant.Types)

	assert.Len(t, views["all_incentives"], 5)
	assert.Len(t, views["all_regulations"], 2)
	assert.Len(t, views[AllKey], 7)
}

func TestCount(t *testing.T) {
	views := loadViews(t)
	types := CountTypes("all_incentives")
	require.Contains(t, types, Emissions)

	counts := Count(views["all_incentives"], types)
	require.Len(t, counts, 3)
	assert.Equal(t, "CA", counts[0].State)

	tx := counts[2]
	assert.Equal(t, "TX", tx.State)
	assert.Equal(t, 2, tx.All)
	assert.Equal(t, 1, tx.ByType["Electricity"])
	assert.Equal(t, 1, tx.ByType["Propane"])
	assert.Equal(t, 1, tx.ByType[Emissions])
	assert.Equal(t, 0, tx.ByType["Ethanol"])

	assert.Nil(t, CountTypes("emissions_incentives"))
	assert.NotContains(t, CountTypes("fuel_use_incentives"), Emissions)
}

func states(codes ...string) *geoio.Layer {
	l := geoio.NewLayer("states", spatial.EPSG4326, geoio.StringField(models.FieldStateAbbr, 2), geoio.StringField("NAME", 32))
	for i, c := range codes {
		x := float64(i)
		f := geoio.NewFeature(orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}})
		f.Properties[models.FieldStateAbbr] = c
		f.Properties["NAME"] = c
		l.Add(f)
	}
	return l
}

func TestJoinStatesFillsZero(t *testing.T) {
	views := loadViews(t)
	types := CountTypes(AllKey)
	merged, st, err := JoinStates(states("TX", "NM"), Count(views[AllKey], types), types)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, 1, st.Matched)
	assert.True(t, merged.HasField("Electricit"))
	assert.True(t, merged.HasField("Renewable"))

	nm, _ := merged.Features[1].Int(FieldAll)
	assert.Equal(t, 0, nm)
}

func TestStageRun(t *testing.T) {
	dir := t.TempDir()
	p := config.DefaultPipeline()
	p.DataDir = filepath.Join(dir, "data")
	p.GeoJSONDir = filepath.Join(dir, "web")
	fixtureDir(t, p.Path(p.Inputs.PolicyDir))
	require.NoError(t, geoio.WriteShapefile(p.Path(p.Inputs.StateBounds), states("CA", "OK", "TX", "NM")))

	res, err := New(p).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Outputs, 8)

	all, err := geoio.ReadShapefile(p.Path(LayerPath(AllKey) + ".shp"))
	require.NoError(t, err)
	require.Equal(t, 4, all.Len())
	for _, f := range all.Features {
		if f.String(models.FieldStateAbbr) == "CA" {
			n, _ := f.Int(FieldAll)
			assert.Equal(t, 4, n)
			e, _ := f.Int(Emissions)
			assert.Equal(t, 2, e)
		}
	}
}
