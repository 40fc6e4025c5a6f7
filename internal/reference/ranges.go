package reference

// Ranges is the fine trip-range aggregation
var Ranges = []Aggregate{
	{Name: "Below 100 miles", VIUS: []string{"TRIP0_50", "TRIP051_100"}, FAF5: []string{"Below 100"}, ShortName: "below_100"},
	{Name: "100 to 250 miles", VIUS: []string{"TRIP101_200"}, FAF5: []string{"100 - 249"}, ShortName: "100_250"},
	{Name: "250 to 500 miles", VIUS: []string{"TRIP201_500"}, FAF5: []string{"250 - 499"}, ShortName: "250_500"},
	{Name: "Over 500 miles", VIUS: []string{"TRIP500MORE"}, FAF5: []string{"500 - 749", "750 - 999", "1,000 - 1,499", "1,500 - 2,000", "Over 2,000"}, ShortName: "over_500"},
}

// CoarseRanges splits trips at 250 miles
var CoarseRanges = []Aggregate{
	{Name: "Below 250 miles", VIUS: []string{"TRIP0_50", "TRIP051_100", "TRIP101_200"}, FAF5: []string{"Below 100", "100 - 249"}, ShortName: "below_250"},
	{Name: "Over 250 miles", VIUS: []string{"TRIP201_500", "TRIP500MORE"}, FAF5: []string{"250 - 499", "500 - 749", "750 - 999", "1,000 - 1,499", "1,500 - 2,000", "Over 2,000"}, ShortName: "over_250"},
}

// VIUSRangeNames describes the survey trip-range columns
var VIUSRangeNames = map[string]string{
	"TRIP0_50":    "Range <= 50 miles",
	"TRIP051_100": "51 miles <= Range <= 100 miles",
	"TRIP101_200": "101 miles <= Range <= 200 miles",
	"TRIP201_500": "201 miles <= Range <= 500 miles",
	"TRIP500MORE": "Range >= 501 miles",
}

// Range looks up a fine or coarse range bucket by canonical or short name
func Range(name string) (Aggregate, error) {
	if a, err := find(Ranges, name, "range"); err == nil {
		return a, nil
	}
	return find(CoarseRanges, name, "range")
}
