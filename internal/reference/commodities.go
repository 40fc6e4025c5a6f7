// Package reference holds the read-only lookup tables shared by the VIUS,
// energy and policy stages: commodity and trip-range aggregations, fuel
// codes, GREET weight classes and state codes.
package reference

import "fmt"

// Aggregate groups VIUS survey columns under one canonical name together
// with the FAF5 labels it corresponds to
type Aggregate struct {
	Name      string
	VIUS      []string
	FAF5      []string
	ShortName string
}

// Commodities maps FAF5 commodity groups to VIUS percent-of-ton-miles
// columns. Each VIUS column belongs to at most one entry.
var Commodities = []Aggregate{
	{Name: "Live animals/fish", VIUS: []string{"PLIVEANIMAL"}, FAF5: []string{"Live animals/fish"}, ShortName: "live_animals_fish"},
	{Name: "Cereal grains", VIUS: []string{"PGRAINS"}, FAF5: []string{"Cereal grains"}, ShortName: "cereal_grains"},
	{Name: "Other agricultural products", VIUS: []string{"POTHERAGRIC"}, FAF5: []string{"Other ag prods.", "Tobacco prods."}, ShortName: "other_ag_prods"},
	{Name: "Animal feed", VIUS: []string{"PANIMALFEED"}, FAF5: []string{"Animal feed"}, ShortName: "animal_feed"},
	{Name: "Meat/seafood", VIUS: []string{"PMEATS"}, FAF5: []string{"Meat/seafood"}, ShortName: "meat_seafood"},
	{Name: "Milled grain prods.", VIUS: []string{"PBAKERYPROD"}, FAF5: []string{"Milled grain prods."}, ShortName: "milled_grain_prods"},
	{Name: "Other foodstuffs", VIUS: []string{"POTHERFOOD"}, FAF5: []string{"Other foodstuffs"}, ShortName: "other_food"},
	{Name: "Alcoholic beverages", VIUS: []string{"PALCOHOLIC"}, FAF5: []string{"Alcoholic beverages"}, ShortName: "alcohol"},
	{Name: "Nonmetallic minerals", VIUS: []string{"POTHERMIN"}, FAF5: []string{"Nonmetallic minerals"}, ShortName: "nonmetal_mins"},
	{Name: "Metallic ores", VIUS: []string{"PORES"}, FAF5: []string{"Metallic ores"}, ShortName: "metal_ores"},
	{Name: "Coal", VIUS: []string{"PCOAL"}, FAF5: []string{"Coal"}, ShortName: "coal"},
	{Name: "Crude petroleum", VIUS: []string{"PCRUDEPETRLM"}, FAF5: []string{"Crude petroleum"}, ShortName: "crude_petroleum"},
	{Name: "Gasoline", VIUS: []string{"PGASOLINE"}, FAF5: []string{"Gasoline"}, ShortName: "gasoline"},
	{Name: "Fuel oils", VIUS: []string{"PFUELOIL"}, FAF5: []string{"Fuel oils"}, ShortName: "fuel_oils"},
	{Name: "Natural gas and other fossil products", VIUS: []string{"POTHERCOAL"}, FAF5: []string{"Natural gas and other fossil products"}, ShortName: "other_fossil_products"},
	{Name: "Basic chemicals", VIUS: []string{"PCHEMICALS"}, FAF5: []string{"Basic chemicals"}, ShortName: "basic_chems"},
	{Name: "Pharmaceuticals", VIUS: []string{"PPHARMACEUT"}, FAF5: []string{"Pharmaceuticals"}, ShortName: "pharmaceut"},
	{Name: "Fertilizers", VIUS: []string{"PFERTILIZER"}, FAF5: []string{"Fertilizers"}, ShortName: "fertilizer"},
	{Name: "Chemical products", VIUS: []string{"POTHERCHEM"}, FAF5: []string{"Chemical prods."}, ShortName: "chem_prods"},
	{Name: "Plastics/rubber", VIUS: []string{"PPLASTICS"}, FAF5: []string{"Plastics/rubber"}, ShortName: "plastics_rubber"},
	{Name: "Logs", VIUS: []string{"PLOGS"}, FAF5: []string{"Logs"}, ShortName: "logs"},
	{Name: "Wood products", VIUS: []string{"PNEWSPRINT", "PPAPER", "PPRINTPROD"}, FAF5: []string{"Newsprint/paper", "Wood prods.", "Paper articles", "Printed prods."}, ShortName: "wood_prods"},
	{Name: "Miscellaneous manufactured products", VIUS: []string{"PMISCPROD"}, FAF5: []string{"Textiles/leather", "Misc. mfg. prods.", "Motorized vehicles"}, ShortName: "misc_manuf_prods"},
	{Name: "Nonmetallic mineral products", VIUS: []string{"PNONMETAL"}, FAF5: []string{"Nonmetal min. prods.", "Building stone", "Natural sands", "Gravel"}, ShortName: "nonmetal_min_prods"},
	{Name: "Base metal in primary or semifinished forms", VIUS: []string{"PMETALPRIM"}, FAF5: []string{"Base metals"}, ShortName: "base_metals"},
	{Name: "Articles of Base Metal", VIUS: []string{"PBASEMETAL"}, FAF5: []string{"Articles-base metal"}, ShortName: "base_metal"},
	{Name: "Machinery", VIUS: []string{"PMACHINERY"}, FAF5: []string{"Machinery"}, ShortName: "machinery"},
	{Name: "Electronics", VIUS: []string{"PELECTRONIC"}, FAF5: []string{"Electronics"}, ShortName: "electronics"},
	{Name: "Transportation equipment", VIUS: []string{"POTHERTRANS"}, FAF5: []string{"Transport equip."}, ShortName: "transport_equip"},
	{Name: "Precision instruments", VIUS: []string{"PPRECISION"}, FAF5: []string{"Precision instruments"}, ShortName: "precision_inst"},
	{Name: "Furniture", VIUS: []string{"PFURNITURE"}, FAF5: []string{"Furniture"}, ShortName: "furniture"},
	{Name: "Waste/scrap", VIUS: []string{"POTHERWASTE", "PHAZWASTE"}, FAF5: []string{"Waste/scrap"}, ShortName: "waste_scrap"},
	{Name: "Mixed freight", VIUS: []string{"PMIXFREIGHT"}, FAF5: []string{"Mixed freight"}, ShortName: "mixed_freight"},
}

// VIUSCommodityNames maps VIUS commodity columns to survey descriptions
var VIUSCommodityNames = map[string]string{
	"PALCOHOLIC":   "Alcoholic Beverages",
	"PANIMALFEED":  "Animal Feed",
	"PBAKERYPROD":  "Bakery Products",
	"PBASEMETAL":   "Articles of Base Metal",
	"PCHEMICALS":   "Basic Chemicals",
	"PCOAL":        "Coal",
	"PCRUDEPETRLM": "Crude Petroleum",
	"PELECTRONIC":  "Electronics",
	"PEMPCONTAIN":  "Shipping Containers",
	"PFERTILIZER":  "Fertilizer",
	"PFUELOIL":     "Fuel oil",
	"PFURNITURE":   "Furniture",
	"PGASOLINE":    "Gasoline",
	"PGRAINS":      "Cereal Grains",
	"PGRAVEL":      "Gravel",
	"PHAZWASTE":    "Hazardous waste",
	"PLIVEANIMAL":  "Live Animal",
	"PLOGS":        "Logs",
	"PMACHINERY":   "Machinery",
	"PMAIL":        "Mail",
	"PMEATS":       "Meats",
	"PMETALPRIM":   "Base Metal in Primary or Semifinished Forms",
	"PMISCPROD":    "Miscellaneous Manufactured Products",
	"PMIXFREIGHT":  "Mixed Freight (For-Hire Carriers Only)",
	"PNEWSPRINT":   "Pulp, Newsprint, Paper, and Paperboard",
	"PNONMETAL":    "Nonmetallic Mineral Products",
	"PORES":        "Metallic Ores and Concentrates",
	"POTHER":       "Products, Equipment, or Materials Not Elsewhere Classified",
	"POTHERAGRIC":  "All Other Agricultural Products",
	"POTHERCHEM":   "All Other Chemical Products and Preparations",
	"POTHERCOAL":   "Natural gas and other fossil products",
	"POTHERFOOD":   "All Other Prepared Foodstuffs",
	"POTHERMIN":    "All Other Nonmetallic Minerals",
	"POTHERTRANS":  "All Other Transportation Equipment",
	"POTHERWASTE":  "All Other Waste and Scrap",
	"PPAPER":       "Paper or Paperboard Articles",
	"PPHARMACEUT":  "Pharmaceutical Products",
	"PPLASTICS":    "Plastics and Rubber",
	"PPRECISION":   "Precision Instruments and Apparatus",
	"PPRINTPROD":   "Printed Products",
	"PRECYCLABLE":  "Recyclable Products",
}

// Commodity looks up an aggregated commodity by canonical or short name
func Commodity(name string) (Aggregate, error) {
	return find(Commodities, name, "commodity")
}

func find(table []Aggregate, name, kind string) (Aggregate, error) {
	for _, a := range table {
		if a.Name == name || a.ShortName == name {
			return a, nil
		}
	}
	return Aggregate{}, fmt.Errorf("unknown %s %q", kind, name)
}

// Validate reports the first VIUS column claimed by two aggregates
func Validate(table []Aggregate) error {
	owner := make(map[string]string)
	for _, a := range table {
		if len(a.VIUS) == 0 {
			return fmt.Errorf("aggregate %q has no VIUS columns", a.Name)
		}
		for _, c := range a.VIUS {
			if prev, ok := owner[c]; ok {
				return fmt.Errorf("VIUS column %s is claimed by both %q and %q", c, prev, a.Name)
			}
			owner[c] = a.Name
		}
	}
	return nil
}
