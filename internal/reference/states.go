package reference

import "strings"

// State is a U.S. state or the District of Columbia
type State struct {
	Name   string
	Abbrev string
	VIUS   int // administrative-state code in the survey
}

// States lists the 50 states plus DC
var States = []State{
	{"Alabama", "AL", 1}, {"Alaska", "AK", 2}, {"Arizona", "AZ", 4}, {"Arkansas", "AR", 5},
	{"California", "CA", 6}, {"Colorado", "CO", 8}, {"Connecticut", "CT", 9}, {"Delaware", "DE", 10},
	{"District of Columbia", "DC", 11}, {"Florida", "FL", 12}, {"Georgia", "GA", 13}, {"Hawaii", "HI", 15},
	{"Idaho", "ID", 16}, {"Illinois", "IL", 17}, {"Indiana", "IN", 18}, {"Iowa", "IA", 19},
	{"Kansas", "KS", 20}, {"Kentucky", "KY", 21}, {"Louisiana", "LA", 22}, {"Maine", "ME", 23},
	{"Maryland", "MD", 24}, {"Massachusetts", "MA", 25}, {"Michigan", "MI", 26}, {"Minnesota", "MN", 27},
	{"Mississippi", "MS", 28}, {"Missouri", "MO", 29}, {"Montana", "MT", 30}, {"Nebraska", "NE", 31},
	{"Nevada", "NV", 32}, {"New Hampshire", "NH", 33}, {"New Jersey", "NJ", 34}, {"New Mexico", "NM", 35},
	{"New York", "NY", 36}, {"North Carolina", "NC", 37}, {"North Dakota", "ND", 38}, {"Ohio", "OH", 39},
	{"Oklahoma", "OK", 40}, {"Oregon", "OR", 41}, {"Pennsylvania", "PA", 42}, {"Rhode Island", "RI", 44},
	{"South Carolina", "SC", 45}, {"South Dakota", "SD", 46}, {"Tennessee", "TN", 47}, {"Texas", "TX", 48},
	{"Utah", "UT", 49}, {"Vermont", "VT", 50}, {"Virginia", "VA", 51}, {"Washington", "WA", 53},
	{"West Virginia", "WV", 54}, {"Wisconsin", "WI", 55}, {"Wyoming", "WY", 56},
}

var (
	byName   = make(map[string]State, len(States))
	byAbbrev = make(map[string]State, len(States))
	byVIUS   = make(map[int]State, len(States))
)

func init() {
	for _, s := range States {
		byName[strings.ToLower(s.Name)] = s
		byAbbrev[s.Abbrev] = s
		byVIUS[s.VIUS] = s
	}
	byName["washington dc"] = byAbbrev["DC"]
	byName["washington d.c."] = byAbbrev["DC"]
}

// StateAbbrev normalizes a state name or abbreviation to its two-letter code
func StateAbbrev(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if st, ok := byAbbrev[strings.ToUpper(s)]; ok {
		return st.Abbrev, true
	}
	st, ok := byName[strings.ToLower(s)]
	return st.Abbrev, ok
}

// StateByVIUS resolves a survey administrative-state code
func StateByVIUS(code int) (State, bool) {
	st, ok := byVIUS[code]
	return st, ok
}

// StateByAbbrev resolves a two-letter code
func StateByAbbrev(abbrev string) (State, bool) {
	st, ok := byAbbrev[strings.ToUpper(strings.TrimSpace(abbrev))]
	return st, ok
}
