package corridor

import (
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// SampleOptions configure the sparse sampler. Distances are great-circle meters.
type SampleOptions struct {
	MinDistance       float64
	TargetAvgDistance float64
	Seed              *int64 // nil draws a seed from the clock
}

// SeedOf returns a seed for SampleOptions. Any value, including 0, gives a
// reproducible sample.
func SeedOf(v int64) *int64 {
	return &v
}

// Sample thins geographic points to a sparse set. Points are visited in a
// shuffled order; the first is accepted, and each later candidate is
// accepted only when it is at least MinDistance from every accepted point
// and its inclusion moves the mean pairwise distance of the accepted set
// closer to TargetAvgDistance. With a single accepted point the mean is 0.
// Accepted indices are returned in ascending order.
func Sample(points []orb.Point, opts SampleOptions) []int {
	if len(points) == 0 {
		return nil
	}

	var seed int64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else {
		seed = time.Now().UnixNano()
		log.Printf("[Sampler] No seed configured, using %d", seed)
	}
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(points))

	accepted := []int{order[0]}
	var sum float64
	var pairs int

	for _, c := range order[1:] {
		var add float64
		ok := true
		for _, a := range accepted {
			d := spatial.GreatCircleMeters(points[c], points[a])
			if d < opts.MinDistance {
				ok = false
				break
			}
			add += d
		}
		if !ok {
			continue
		}

		current := 0.0
		if pairs > 0 {
			current = sum / float64(pairs)
		}
		next := (sum + add) / float64(pairs+len(accepted))
		if math.Abs(next-opts.TargetAvgDistance) >= math.Abs(current-opts.TargetAvgDistance) {
			continue
		}

		sum += add
		pairs += len(accepted)
		accepted = append(accepted, c)
	}

	sort.Ints(accepted)
	return accepted
}

// MeanPairwiseDistance returns the mean great-circle distance over every
// pair of the given points, or 0 with fewer than two
func MeanPairwiseDistance(points []orb.Point, indices []int) float64 {
	var sum float64
	var pairs int
	for i := range indices {
		for j := i + 1; j < len(indices); j++ {
			sum += spatial.GreatCircleMeters(points[indices[i]], points[indices[j]])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
