package models

// RoadClass of a highway network link
type RoadClass string

const (
	RoadInterstate RoadClass = "interstate"
	RoadPrincipal  RoadClass = "principal"
	RoadOther      RoadClass = "other"
)

// Network class codes
const (
	ClassCodeInterstate = 11
)

// ClassifyRoad maps a network class code to a road class
func ClassifyRoad(code int) RoadClass {
	switch code {
	case ClassCodeInterstate:
		return RoadInterstate
	case 12, 14:
		return RoadPrincipal
	default:
		return RoadOther
	}
}

// UnitType of a flow column
type UnitType string

const (
	UnitAll UnitType = "All"
	UnitSU  UnitType = "SU" // single unit
	UnitCU  UnitType = "CU" // combined unit
)

// Attribute names shared between stages. Shapefile attributes are bound by
// downstream consumers, so these never change.
const (
	FieldID        = "ID"
	FieldClass     = "Class"
	FieldState     = "STATE"
	FieldLength    = "LENGTH"
	FieldLenMiles  = "len_miles"
	FieldTotTons   = "Tot Tons"
	FieldTotTrips  = "Tot Trips"
	FieldStateAbbr = "STUSPS"

	FieldStopID = "StopID"

	FieldCPD          = "CPD"
	FieldMinChargers  = "Min_Charge"
	FieldMinRatio     = "Min_Ratio"
	FieldHalfCPD      = "Half_CPD"
	FieldHalfChargers = "Half_Charg"
	FieldHalfRatio    = "Half_Ratio"
	FieldColSave      = "Col_Save"

	FieldAvPayload = "Av Payload"
	FieldAvMileage = "Av Mileage"
	FieldAnEDem    = "An E Dem"
	FieldAnnGen    = "Ann_Gen"
	FieldAnnCap    = "Ann_Cap"
	FieldAnnDiff   = "Ann_Diff"
	FieldPercGen   = "Perc_Gen"
	FieldPercCap   = "Perc_Cap"
	FieldPercDiff  = "Perc_Diff"

	FieldCO2Rate = "CO2_rate"
)

// HighwayLink is a network segment with its assigned annual freight flow
type HighwayLink struct {
	ID        int       `json:"id"`
	Class     RoadClass `json:"class"`
	ClassCode int       `json:"class_code"`
	LenMiles  float64   `json:"len_miles"`
	Tons      float64   `json:"tons"`  // kilotons per year
	Trips     float64   `json:"trips"` // trips per day
	State     string    `json:"state"`
}

// TruckStop is a truck-stop parking location on an interstate corridor.
// Fields are appended by later stages and never rewritten.
type TruckStop struct {
	ID               int     `json:"id"`
	TripsPerDay      float64 `json:"trips_per_day"`
	NeighborsInRange int     `json:"neighbors_in_range"`
	ChargingTime     float64 `json:"charging_time,omitempty"`
	MaxWait          float64 `json:"max_wait,omitempty"`
	MinChargers      int     `json:"min_chargers,omitempty"`
	Ratio            float64 `json:"ratio,omitempty"`
	ChargesPerDay    int     `json:"charges_per_day,omitempty"`
}

// GridRegion carries an emission intensity and optional supply figures
type GridRegion struct {
	Name          string  `json:"name"`
	CO2Rate       float64 `json:"co2_rate"`                 // lb/MWh
	EmissionsTons float64 `json:"emissions_tons,omitempty"` // annual CO2 equivalent
	CapacityMW    float64 `json:"capacity_mw,omitempty"`    // net summer capacity
	Generation    float64 `json:"generation,omitempty"`     // GWh
}

// HoursPerYear converts capacity to a theoretical annual output
const HoursPerYear = 8760.0

// AnnualCapacity returns capacity × 8760 h in GWh
func (g GridRegion) AnnualCapacity() float64 {
	return g.CapacityMW * HoursPerYear / 1000
}

// AnnualDifference is the slack between theoretical and actual generation in GWh
func (g GridRegion) AnnualDifference() float64 {
	return g.AnnualCapacity() - g.Generation
}
