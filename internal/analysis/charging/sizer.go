// Package charging sizes the charger count at each corridor truck stop.
package charging

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/corridor"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/queueing"
)

// Options are the sizing parameters shared by every stop of one run
type Options struct {
	RangeMiles   float64 `json:"range_miles"`
	ChargingTime float64 `json:"charging_time"`
	MaxWait      float64 `json:"max_wait"`
	HalfFlows    bool    `json:"half_flows"`
}

// LayerName returns the stable name of the sized stop layer, e.g.
// Truck_Stop_Parking_Along_Interstate_with_min_chargers_range_200.0_chargingtime_4.0_maxwait_0.5
func (o Options) LayerName() string {
	return fmt.Sprintf("%s_with_min_chargers_range_%s_chargingtime_%s_maxwait_%s",
		corridor.LayerAlongInterstate, formatParam(o.RangeMiles), formatParam(o.ChargingTime), formatParam(o.MaxWait))
}

// formatParam renders the shortest decimal form with at least one
// fractional digit: 200.0, 4.0, 0.5, 0.25
func formatParam(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Stats summarises a sizing run
type Stats struct {
	Stops         int     `json:"stops"`
	TotalChargers int     `json:"total_chargers"`
	MeanRatio     float64 `json:"mean_ratio"`
	HalfChargers  int     `json:"half_chargers,omitempty"`
	MeanColSave   float64 `json:"mean_collaboration_savings,omitempty"`
}

// WebColumns are the attributes kept in the simplified copies
var WebColumns = []string{
	models.FieldStopID, models.FieldTotTrips,
	models.FieldCPD, models.FieldHalfCPD,
	models.FieldMinChargers, models.FieldHalfChargers,
	models.FieldMinRatio, models.FieldHalfRatio,
	models.FieldColSave,
}

// Sizer applies the queueing model to a stop layer
type Sizer struct {
	model *queueing.Model
}

// NewSizer wraps a model. Sharing one model across runs shares its caches.
func NewSizer(m *queueing.Model) *Sizer {
	if m == nil {
		m = queueing.NewModel()
	}
	return &Sizer{model: m}
}

// Size returns a copy of stops with CPD, Min_Charge and Min_Ratio appended,
// plus the Half_* fields and Col_Save when HalfFlows is set. neighborField
// names the neighbour count attribute and may be empty. Invalid parameters
// or a stop without trips per day abort the run.
func (s *Sizer) Size(ctx context.Context, job *analysis.Job, stops *geoio.Layer, neighborField string, opts Options) (*geoio.Layer, Stats, error) {
	st := Stats{Stops: stops.Len()}
	if err := stops.Require(models.FieldTotTrips); err != nil {
		return nil, st, err
	}

	out := stops.Clone()
	out.Name = opts.LayerName()
	out.SetField(geoio.IntField(models.FieldCPD))
	out.SetField(geoio.IntField(models.FieldMinChargers))
	out.SetField(geoio.FloatField(models.FieldMinRatio))
	if opts.HalfFlows {
		out.SetField(geoio.IntField(models.FieldHalfCPD))
		out.SetField(geoio.IntField(models.FieldHalfChargers))
		out.SetField(geoio.FloatField(models.FieldHalfRatio))
		out.SetField(geoio.FloatField(models.FieldColSave))
	}

	var ratioSum, saveSum float64
	err := analysis.Each(ctx, job, out.Len(), func(i int) error {
		f := out.Features[i]
		trips, ok := f.Float(models.FieldTotTrips)
		if !ok {
			return fmt.Errorf("%w: truck stop %d has no trips per day", queueing.ErrInvalidInput, i)
		}
		var neighbors int
		if neighborField != "" {
			neighbors, _ = f.Int(neighborField)
		}

		p := queueing.Params{
			TripsPerDay:      trips,
			NeighborsInRange: neighbors,
			RangeMiles:       opts.RangeMiles,
			ChargingTime:     opts.ChargingTime,
			MaxWait:          opts.MaxWait,
		}
		full, err := s.model.MinChargers(p)
		if err != nil {
			return fmt.Errorf("failed to size truck stop %d: %w", i, err)
		}
		f.Properties[models.FieldCPD] = full.ChargesPerDay
		f.Properties[models.FieldMinChargers] = full.MinChargers
		f.Properties[models.FieldMinRatio] = full.Ratio
		st.TotalChargers += full.MinChargers
		ratioSum += full.Ratio

		if !opts.HalfFlows {
			return nil
		}
		p.TripsPerDay = trips / 2
		half, err := s.model.MinChargers(p)
		if err != nil {
			return fmt.Errorf("failed to size truck stop %d at half flows: %w", i, err)
		}
		save := CollaborationSavings(full.Ratio, half.Ratio)
		f.Properties[models.FieldHalfCPD] = half.ChargesPerDay
		f.Properties[models.FieldHalfChargers] = half.MinChargers
		f.Properties[models.FieldHalfRatio] = half.Ratio
		f.Properties[models.FieldColSave] = save
		st.HalfChargers += half.MinChargers
		saveSum += save
		return nil
	})
	if err != nil {
		return nil, st, err
	}

	if st.Stops > 0 {
		st.MeanRatio = ratioSum / float64(st.Stops)
		st.MeanColSave = saveSum / float64(st.Stops)
	}
	log.Printf("[ChargerSizing] Sized %d stops at R=%v mi, τ=%v h, W=%v h: %d chargers (mean ratio %.3f)",
		st.Stops, opts.RangeMiles, opts.ChargingTime, opts.MaxWait, st.TotalChargers, st.MeanRatio)
	return out, st, nil
}

// CollaborationSavings is the percent reduction in the charger-to-truck
// ratio from pooling full flows instead of serving half of them
func CollaborationSavings(ratio, halfRatio float64) float64 {
	if halfRatio == 0 {
		return 0
	}
	return 100 * (1 - ratio/halfRatio)
}
