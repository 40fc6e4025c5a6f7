package queueing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(trips, rangeMiles, tau, wait float64) Params {
	return Params{TripsPerDay: trips, RangeMiles: rangeMiles, ChargingTime: tau, MaxWait: wait}
}

func TestChargesPerDay(t *testing.T) {
	tests := []struct {
		trips, rangeMiles float64
		want              int
	}{
		{400, 200, 200},
		{1000, 200, 500},
		{0, 200, 1},
		{1, 200, 1},
		{3, 100, 3},
		{250, 400, 62},
	}
	for _, tt := range tests {
		c, err := ChargesPerDay(tt.trips, tt.rangeMiles)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c, "T=%v R=%v", tt.trips, tt.rangeMiles)
	}

	_, err := ChargesPerDay(-1, 200)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = ChargesPerDay(10, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestValidate(t *testing.T) {
	bad := []Params{
		params(-1, 200, 1, 1),
		params(10, 0, 1, 1),
		params(10, -200, 1, 1),
		params(10, 200, 0, 1),
		params(10, 200, 25, 1),
		params(10, 200, 1, 0),
		params(10, 200, 1, -1),
		{TripsPerDay: 10, NeighborsInRange: -1, RangeMiles: 200, ChargingTime: 1, MaxWait: 1},
	}
	for _, p := range bad {
		_, err := MinChargers(p)
		assert.True(t, errors.Is(err, ErrInvalidInput), "%+v", p)
	}
}

func TestArrivalDistributionSumsToOne(t *testing.T) {
	m := NewModel()
	for _, tc := range []struct {
		c   int
		tau float64
	}{{200, 0.5}, {50, 0.5}, {2, 1}, {1, 4}} {
		require.False(t, UsesGaussian(tc.c, tc.tau))
		dist := m.ArrivalDistribution(tc.c, tc.tau)
		require.Len(t, dist, tc.c)
		var sum float64
		for _, p := range dist {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1, sum, 1e-9, "C=%d τ=%v", tc.c, tc.tau)
	}
}

func TestQueueWaitClosedForm(t *testing.T) {
	m := NewModel()
	for _, tau := range []float64{0.5, 1, 4} {
		for n := 1; n <= 40; n++ {
			assert.InDelta(t, tau/float64(n+1), m.QueueWait(0, n, tau), 1e-10*tau, "N=%d τ=%v", n, tau)
		}
	}

	// N=2: μ1 = τ/3 + (τ/2)(1 - 1/3)^2 = 5τ/9
	assert.InDelta(t, 5.0/9.0, m.QueueWait(1, 2, 1), 1e-12)

	// full rounds add τ each
	assert.InDelta(t, 2*4+4.0/4, m.QueueWait(6, 3, 4), 1e-10)
	assert.InDelta(t, 3*0.5+0.25, m.QueueWait(3, 1, 0.5), 1e-12)
	assert.Equal(t, 0.0, m.QueueWait(0, 0, 1))
}

func TestExpectedWaitNonIncreasingInN(t *testing.T) {
	m := NewModel()
	for _, tc := range []struct {
		c   int
		tau float64
	}{{200, 0.5}, {100, 1}, {500, 4}} {
		prev := m.ExpectedWait(tc.c, 1, tc.tau)
		for n := 2; n < 60 && n < tc.c; n++ {
			cur := m.ExpectedWait(tc.c, n, tc.tau)
			assert.LessOrEqual(t, cur, prev+1e-12, "C=%d N=%d", tc.c, n)
			prev = cur
		}
	}
}

func assertMinimal(t *testing.T, m *Model, p Params, r Result) {
	t.Helper()
	require.LessOrEqual(t, r.MinChargers, r.ChargesPerDay)
	if r.MinChargers < r.ChargesPerDay {
		assert.Less(t, m.ExpectedWait(r.ChargesPerDay, r.MinChargers, p.ChargingTime), p.MaxWait)
	}
	if r.MinChargers > 1 {
		assert.GreaterOrEqual(t, m.ExpectedWait(r.ChargesPerDay, r.MinChargers-1, p.ChargingTime), p.MaxWait)
	}
	assert.Greater(t, r.Ratio, 0.0)
	assert.LessOrEqual(t, r.Ratio, 1.0)
}

func TestMinChargersBinomialScenario(t *testing.T) {
	m := NewModel()
	p := params(400, 200, 0.5, 1)
	r, err := m.MinChargers(p)
	require.NoError(t, err)

	assert.Equal(t, 200, r.ChargesPerDay)
	assert.False(t, UsesGaussian(200, 0.5))
	assert.Greater(t, r.MinChargers, 1)
	assert.Less(t, r.MinChargers, 20)
	assertMinimal(t, m, p, r)
	assert.InDelta(t, float64(r.MinChargers)/200, r.Ratio, 1e-12)
}

func TestMinChargersZeroTrips(t *testing.T) {
	r, err := MinChargers(params(0, 200, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, Result{MinChargers: 1, Ratio: 1.0, ChargesPerDay: 1}, r)
}

func TestMinChargersGaussianScenario(t *testing.T) {
	m := NewModel()
	p := params(1000, 200, 4, 1)
	r, err := m.MinChargers(p)
	require.NoError(t, err)

	assert.Equal(t, 500, r.ChargesPerDay)
	assert.True(t, UsesGaussian(500, 4))
	assert.Less(t, r.MinChargers, 500)
	assertMinimal(t, m, p, r)
}

func TestMinChargersMonotonic(t *testing.T) {
	m := NewModel()
	nmin := func(trips, tau, wait float64) int {
		r, err := m.MinChargers(params(trips, 200, tau, wait))
		require.NoError(t, err)
		return r.MinChargers
	}

	prev := 0
	for _, trips := range []float64{100, 200, 400} {
		n := nmin(trips, 0.5, 1)
		assert.GreaterOrEqual(t, n, prev, "T=%v", trips)
		prev = n
	}

	prev = 0
	for _, tau := range []float64{0.25, 0.5, 1} {
		n := nmin(200, tau, 1)
		assert.GreaterOrEqual(t, n, prev, "τ=%v", tau)
		prev = n
	}

	prev = 1 << 30
	for _, wait := range []float64{0.25, 0.5, 1, 2} {
		n := nmin(200, 0.5, wait)
		assert.LessOrEqual(t, n, prev, "W=%v", wait)
		prev = n
	}
}

func TestMinChargersIdempotent(t *testing.T) {
	p := params(400, 200, 0.5, 1)
	a, err := NewModel().MinChargers(p)
	require.NoError(t, err)
	b, err := MinChargers(p)
	require.NoError(t, err)
	c, err := MinChargers(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}
