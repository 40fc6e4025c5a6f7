// Package queueing sizes truck-stop charger banks. Arrivals of other trucks
// during a charge follow a binomial (or, for large populations, Gaussian)
// distribution; the wait for a free charger integrates the survival of the
// sessions ahead in the queue.
package queueing

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidInput is returned for negative trip counts and non-positive
// range, charging time or wait bound
var ErrInvalidInput = errors.New("invalid queueing input")

// HoursPerDay is the window over which charging sessions are spread
const HoursPerDay = 24.0

// corridorShare is the share of passing trucks charging at a stop when the
// vehicle range is 100 miles
const corridorShare = 100.0

// gaussianThreshold is the minimum Cp and C(1-p) for the normal approximation
const gaussianThreshold = 5.0

// Params describes one stop and the fleet assumptions
type Params struct {
	TripsPerDay      float64 // T
	NeighborsInRange int     // carried for future models, not used by the formula
	RangeMiles       float64 // R
	ChargingTime     float64 // τ, hours
	MaxWait          float64 // W, hours
}

// Result is the sizing outcome for one stop
type Result struct {
	MinChargers   int     `json:"min_chargers"`
	Ratio         float64 `json:"charger_to_truck_ratio"`
	ChargesPerDay int     `json:"charges_per_day"`
}

// Validate checks the domain of every parameter
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.TripsPerDay) || p.TripsPerDay < 0:
		return fmt.Errorf("%w: trips per day %v", ErrInvalidInput, p.TripsPerDay)
	case p.NeighborsInRange < 0:
		return fmt.Errorf("%w: neighbours in range %d", ErrInvalidInput, p.NeighborsInRange)
	case !(p.RangeMiles > 0):
		return fmt.Errorf("%w: range %v miles", ErrInvalidInput, p.RangeMiles)
	case !(p.ChargingTime > 0) || p.ChargingTime > HoursPerDay:
		return fmt.Errorf("%w: charging time %v h", ErrInvalidInput, p.ChargingTime)
	case !(p.MaxWait > 0):
		return fmt.Errorf("%w: max wait %v h", ErrInvalidInput, p.MaxWait)
	}
	return nil
}

// ChargesPerDay returns C = ⌊T·100/R⌋, clamped to at least 1
func ChargesPerDay(tripsPerDay, rangeMiles float64) (int, error) {
	if math.IsNaN(tripsPerDay) || tripsPerDay < 0 {
		return 0, fmt.Errorf("%w: trips per day %v", ErrInvalidInput, tripsPerDay)
	}
	if !(rangeMiles > 0) {
		return 0, fmt.Errorf("%w: range %v miles", ErrInvalidInput, rangeMiles)
	}
	c := int(math.Floor(tripsPerDay * corridorShare / rangeMiles))
	if c < 1 {
		c = 1
	}
	return c, nil
}

type arrivalKey struct {
	c   int
	tau float64
}

type queueKey struct {
	n   int
	tau float64
}

type waitKey struct {
	c, n int
	tau  float64
}

// Model memoizes the pure sub-computations of the sizing sweep.
// It is safe for concurrent use.
type Model struct {
	mu       sync.Mutex
	arrivals map[arrivalKey][]float64
	queues   map[queueKey][]float64
	waits    map[waitKey]float64
}

// NewModel returns a model with empty caches
func NewModel() *Model {
	return &Model{
		arrivals: make(map[arrivalKey][]float64),
		queues:   make(map[queueKey][]float64),
		waits:    make(map[waitKey]float64),
	}
}

var defaultModel = NewModel()

// MinChargers sizes a stop with the package-level model
func MinChargers(p Params) (Result, error) {
	return defaultModel.MinChargers(p)
}

// ArrivalDistribution returns P(x other trucks at the stop) for x = 0..C-1.
// Each of the C-1 other daily arrivals is present with probability τ/24.
func (m *Model) ArrivalDistribution(c int, tau float64) []float64 {
	key := arrivalKey{c: c, tau: tau}
	m.mu.Lock()
	cached, ok := m.arrivals[key]
	m.mu.Unlock()
	if ok {
		return cached
	}

	dist := arrivalDistribution(c, tau)

	m.mu.Lock()
	m.arrivals[key] = dist
	m.mu.Unlock()
	return dist
}

func arrivalDistribution(c int, tau float64) []float64 {
	if c <= 1 {
		return []float64{1}
	}

	p := tau / HoursPerDay
	cf := float64(c)
	out := make([]float64, c)

	if UsesGaussian(c, tau) {
		normal := distuv.Normal{Mu: cf * p, Sigma: math.Sqrt(cf * p * (1 - p))}
		for x := range out {
			out[x] = normal.Prob(float64(x))
		}
		return out
	}

	binomial := distuv.Binomial{N: cf - 1, P: p}
	for x := range out {
		out[x] = binomial.Prob(float64(x))
	}
	return out
}

// UsesGaussian reports whether the normal approximation applies to (C, τ)
func UsesGaussian(c int, tau float64) bool {
	p := tau / HoursPerDay
	cf := float64(c)
	return cf*p > gaussianThreshold && cf*(1-p) > gaussianThreshold
}

// QueueWait returns μ(q; N, τ), the expected wait of a truck standing at
// position q (0-based) of the queue in front of N busy chargers
func (m *Model) QueueWait(q, n int, tau float64) float64 {
	if n < 1 || q < 0 {
		return 0
	}
	prefix := m.queuePrefix(n, tau)
	full := q / n
	return float64(full)*tau + prefix[q%n]
}

// queuePrefix returns the running totals μ(r; N, τ) for r = 0..N-1
func (m *Model) queuePrefix(n int, tau float64) []float64 {
	key := queueKey{n: n, tau: tau}
	m.mu.Lock()
	cached, ok := m.queues[key]
	m.mu.Unlock()
	if ok {
		return cached
	}

	prefix := make([]float64, n)
	total := survivalIntegral(0, tau, n)
	prefix[0] = total
	for i := 1; i < n; i++ {
		total += survivalIntegral(total, tau, n-i)
		prefix[i] = total
	}

	m.mu.Lock()
	m.queues[key] = prefix
	m.mu.Unlock()
	return prefix
}

// survivalIntegral is ∫_from^τ (1 - t/τ)^k dt. Gauss-Legendre with
// k/2+2 nodes is exact for the polynomial integrand.
func survivalIntegral(from, tau float64, k int) float64 {
	if from >= tau {
		return 0
	}
	f := func(t float64) float64 {
		return math.Pow(1-t/tau, float64(k))
	}
	v := quad.Fixed(f, from, tau, k/2+2, nil, 0)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// ExpectedWait returns E[wait | N] = Σ_{x=N}^{C-1} P(x) μ(x-N; N, τ)
func (m *Model) ExpectedWait(c, n int, tau float64) float64 {
	key := waitKey{c: c, n: n, tau: tau}
	m.mu.Lock()
	cached, ok := m.waits[key]
	m.mu.Unlock()
	if ok {
		return cached
	}

	dist := m.ArrivalDistribution(c, tau)
	var wait float64
	for x := n; x < len(dist); x++ {
		if dist[x] == 0 {
			continue
		}
		wait += dist[x] * m.QueueWait(x-n, n, tau)
	}

	m.mu.Lock()
	m.waits[key] = wait
	m.mu.Unlock()
	return wait
}

// MinChargers finds the smallest N in 1..C-1 with E[wait|N] < W, or C when
// none qualifies
func (m *Model) MinChargers(p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	c, err := ChargesPerDay(p.TripsPerDay, p.RangeMiles)
	if err != nil {
		return Result{}, err
	}

	n := c
	for candidate := 1; candidate < c; candidate++ {
		if m.ExpectedWait(c, candidate, p.ChargingTime) < p.MaxWait {
			n = candidate
			break
		}
	}

	return Result{
		MinChargers:   n,
		Ratio:         float64(n) / float64(c),
		ChargesPerDay: c,
	}, nil
}
