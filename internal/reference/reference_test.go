package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommoditiesDisjoint(t *testing.T) {
	require.NoError(t, Validate(Commodities))
	require.NoError(t, Validate(Ranges))
	require.NoError(t, Validate(CoarseRanges))
	assert.Len(t, Commodities, 33)

	for _, a := range Commodities {
		for _, c := range a.VIUS {
			_, ok := VIUSCommodityNames[c]
			assert.True(t, ok, "%s in %s", c, a.Name)
		}
	}
}

func TestValidateOverlap(t *testing.T) {
	err := Validate([]Aggregate{
		{Name: "a", VIUS: []string{"PNONMETAL"}},
		{Name: "b", VIUS: []string{"PNONMETAL"}},
	})
	assert.Error(t, err)

	assert.Error(t, Validate([]Aggregate{{Name: "empty"}}))
}

func TestCoarseRangesCoverFine(t *testing.T) {
	fine := map[string]bool{}
	for _, r := range Ranges {
		for _, c := range r.VIUS {
			fine[c] = true
		}
	}
	coarse := map[string]bool{}
	for _, r := range CoarseRanges {
		for _, c := range r.VIUS {
			coarse[c] = true
		}
	}
	assert.Equal(t, fine, coarse)
	assert.Len(t, fine, len(VIUSRangeNames))
}

func TestLookup(t *testing.T) {
	wood, err := Commodity("wood_prods")
	require.NoError(t, err)
	assert.Equal(t, "Wood products", wood.Name)
	assert.Equal(t, []string{"PNEWSPRINT", "PPAPER", "PPRINTPROD"}, wood.VIUS)

	_, err = Commodity("unobtainium")
	assert.Error(t, err)

	r, err := Range("over_250")
	require.NoError(t, err)
	assert.Equal(t, "Over 250 miles", r.Name)
	r, err = Range("Below 100 miles")
	require.NoError(t, err)
	assert.Equal(t, "below_100", r.ShortName)
}

func TestClassifyGVW(t *testing.T) {
	tests := []struct {
		lb   float64
		want GREETClass
	}{
		{80000, HeavyGVW},
		{33000, HeavyGVW},
		{32999, MediumGVW},
		{19500, MediumGVW},
		{19499, LightGVW},
		{8500, LightGVW},
		{8499, LightDuty},
		{0, LightDuty},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyGVW(tt.lb), "%v lb", tt.lb)
	}
	assert.Equal(t, "Medium GVW", MediumGVW.String())
	assert.Equal(t, "Diesel", Diesel.String())
	assert.Equal(t, "Unknown", Fuel(99).String())
}

func TestStates(t *testing.T) {
	assert.Len(t, States, 51)

	for _, in := range []string{"Texas", "texas", " TX ", "tx"} {
		abbrev, ok := StateAbbrev(in)
		require.True(t, ok, in)
		assert.Equal(t, "TX", abbrev)
	}
	abbrev, ok := StateAbbrev("District of Columbia")
	require.True(t, ok)
	assert.Equal(t, "DC", abbrev)

	_, ok = StateAbbrev("Puerto Rico")
	assert.False(t, ok)

	st, ok := StateByVIUS(48)
	require.True(t, ok)
	assert.Equal(t, "Texas", st.Name)
	_, ok = StateByVIUS(3)
	assert.False(t, ok)

	st, ok = StateByAbbrev("wy")
	require.True(t, ok)
	assert.Equal(t, 56, st.VIUS)
}
