// Package neighbors counts the truck stops within a great-circle radius of each stop.
package neighbors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// FieldName returns the count attribute for a radius, e.g. N_in_200mi.
// The name is already truncated to a valid DBF field name.
func FieldName(radiusMiles float64) string {
	return geoio.DBFName("N_in_" + strconv.FormatFloat(radiusMiles, 'f', -1, 64) + "mi")
}

// Count returns, for every point, the number of other points within
// radiusMiles. Work is split across workers; the result is indexed like
// points, so it does not depend on scheduling.
func Count(ctx context.Context, job *analysis.Job, points []orb.Point, radiusMiles float64, workers int) ([]int, error) {
	if !(radiusMiles > 0) {
		return nil, fmt.Errorf("neighbour radius must be positive, got %v miles", radiusMiles)
	}

	ix, err := spatial.NewPointIndex(points)
	if err != nil {
		return nil, err
	}
	meters := spatial.MilesToMeters(radiusMiles)

	counts := make([]int, len(points))
	err = analysis.ForEach(ctx, job, len(points), workers, func(_ context.Context, i int) error {
		// the stop itself is always inside its own radius
		counts[i] = len(ix.InRadius(points[i], meters)) - 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
