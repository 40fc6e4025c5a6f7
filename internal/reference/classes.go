package reference

// GREETClass is a weight class used to select lifecycle emission factors
type GREETClass int

// GREET classes, heaviest first
const (
	HeavyGVW GREETClass = iota + 1
	MediumGVW
	LightGVW
	LightDuty
)

var greetNames = map[GREETClass]string{
	HeavyGVW:  "Heavy GVW",
	MediumGVW: "Medium GVW",
	LightGVW:  "Light GVW",
	LightDuty: "Light-duty",
}

func (c GREETClass) String() string {
	if n, ok := greetNames[c]; ok {
		return n
	}
	return "Unknown"
}

// ClassThreshold is the lowest average GVW in pounds belonging to a class
type ClassThreshold struct {
	Class    GREETClass
	MinPound float64
}

// GREETThresholds partitions average loaded GVW into classes, heaviest first.
// A weight belongs to the first class whose minimum it reaches.
var GREETThresholds = []ClassThreshold{
	{Class: HeavyGVW, MinPound: 33000},
	{Class: MediumGVW, MinPound: 19500},
	{Class: LightGVW, MinPound: 8500},
	{Class: LightDuty, MinPound: 0},
}

// ClassifyGVW maps an average gross vehicle weight in pounds to its GREET class
func ClassifyGVW(lb float64) GREETClass {
	for _, t := range GREETThresholds {
		if lb >= t.MinPound {
			return t.Class
		}
	}
	return LightDuty
}

// GREETClasses lists the classes in table order
func GREETClasses() []GREETClass {
	return []GREETClass{HeavyGVW, MediumGVW, LightGVW, LightDuty}
}

// Fuel is the VIUS fuel-type code
type Fuel int

// Fuel codes used by the survey
const (
	Gasoline Fuel = 1
	Diesel   Fuel = 2
)

// Fuels maps VIUS fuel codes to names
var Fuels = map[Fuel]string{
	1:  "Gasoline",
	2:  "Diesel",
	3:  "Natural gas",
	4:  "Propane",
	5:  "Alcohol fuels",
	6:  "Electricity",
	7:  "Gasoline and natural gas",
	8:  "Gasoline and propane",
	9:  "Gasoline and alcohol fuels",
	10: "Gasoline and electricity",
	11: "Diesel and natural gas",
	12: "Diesel and propane",
	13: "Diesel and alcohol fuels",
	14: "Diesel and electricity",
	15: "Not reported",
	16: "Not applicable",
}

func (f Fuel) String() string {
	if n, ok := Fuels[f]; ok {
		return n
	}
	return "Unknown"
}
