package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// Pipeline holds input paths and stage parameters. Relative input paths are
// resolved against DataDir; stage outputs are written under DataDir and
// their simplified copies under GeoJSONDir.
type Pipeline struct {
	DataDir    string `yaml:"data_dir"`
	GeoJSONDir string `yaml:"geojson_dir"`
	Progress   bool   `yaml:"progress"`

	Inputs    Inputs              `yaml:"inputs"`
	Highway   HighwayParams       `yaml:"highway"`
	Corridor  CorridorParams      `yaml:"corridor"`
	Neighbors NeighborParams      `yaml:"neighbors"`
	Charging  ChargingParams      `yaml:"charging"`
	Energy    EnergyParams        `yaml:"energy"`
	Grid      GridParams          `yaml:"grid"`
	VIUS      VIUSParams          `yaml:"vius"`
	Circle    CircleParams        `yaml:"circle"`
	Rates     RatesParams         `yaml:"rates"`
	Load      LoadParams          `yaml:"charging_load"`
	Simplify  SimplifyParams      `yaml:"simplify"`
	Publish   PublishParams       `yaml:"publish"`
	Layers    []models.LayerEntry `yaml:"layers"`
}

// Inputs are raw source files
type Inputs struct {
	NetworkLinks  string `yaml:"network_links"`
	FlowTable     string `yaml:"flow_table"`
	TruckStops    string `yaml:"truck_stops"`
	StateBounds   string `yaml:"state_boundaries"`
	PayloadFit    string `yaml:"payload_mileage_fit"`
	VIUS          string `yaml:"vius"`
	EIACapacity   string `yaml:"eia_capacity"`
	EIAGeneration string `yaml:"eia_generation"`
	EGRID         string `yaml:"egrid"`
	EGRIDRegions  string `yaml:"egrid_subregions"`
	EIAStateRates string `yaml:"eia_state_rates"`
	HourlyDir     string `yaml:"hourly_intensity_dir"`
	ISOBoundaries string `yaml:"iso_boundaries"`
	PolicyDir     string `yaml:"policy_dir"`

	// Electricity prices. An empty path skips that layer.
	StateElectricityRates string `yaml:"state_electricity_rates"`
	ZipcodeRates          string `yaml:"zipcode_rates"`
	ZipcodeBounds         string `yaml:"zipcode_boundaries"`
	DemandCharges         string `yaml:"demand_charges"`
	UtilityBounds         string `yaml:"utility_boundaries"`

	// Electricity demand by balancing authority
	BADemand []string `yaml:"ba_demand"`
	BABounds string   `yaml:"ba_boundaries"`

	// Charging load by zone
	LoadProfile      string `yaml:"load_profile"`
	ChargerLocations string `yaml:"charger_locations"`

	// GREET lifecycle tables. Empty rail or ship paths skip those modes.
	GREETTruck       string `yaml:"greet_truck"`
	GREETRail        string `yaml:"greet_rail"`
	GREETShipFeed    string `yaml:"greet_ship_feedstock"`
	GREETShipConv    string `yaml:"greet_ship_conversion"`
	GREETShipCombust string `yaml:"greet_ship_combustion"`
}

// HighwayParams configure the flow joiner
type HighwayParams struct {
	Year            int     `yaml:"year"`
	MinTons         float64 `yaml:"min_tons"`
	LengthTolerance float64 `yaml:"length_tolerance"` // relative
}

// CorridorParams configure the truck-stop corridor builder
type CorridorParams struct {
	BufferMeters      float64 `yaml:"buffer_meters"`
	MinDistance       float64 `yaml:"min_distance"`        // meters
	TargetAvgDistance float64 `yaml:"target_avg_distance"` // meters
	Seed              *int64  `yaml:"seed"`                // null seeds the sampler from the clock
}

// NeighborParams configure the neighbourhood counter
type NeighborParams struct {
	RadiusMiles float64 `yaml:"radius_miles"`
	Workers     int     `yaml:"workers"` // 0 uses every CPU
}

// ChargingParams configure charger sizing and the parameter sweep
type ChargingParams struct {
	RangeMiles   float64   `yaml:"range_miles"`
	ChargingTime float64   `yaml:"charging_time"`
	MaxWait      float64   `yaml:"max_wait"`
	HalfFlows    bool      `yaml:"half_flows"`
	Sweep        SweepGrid `yaml:"sweep"`
}

// SweepGrid lists the parameter values of the layer family
type SweepGrid struct {
	Ranges        []float64 `yaml:"ranges"`
	ChargingTimes []float64 `yaml:"charging_times"`
	MaxWaits      []float64 `yaml:"max_waits"`
}

// EnergyParams configure the energy-demand rollup
type EnergyParams struct {
	Efficiency float64 `yaml:"efficiency"`
	Year       int     `yaml:"year"` // EIA data year
}

// GridParams configure the grid-intensity ingesters
type GridParams struct {
	EGRIDSheet     string `yaml:"egrid_sheet"`
	EGRIDHeaderRow int    `yaml:"egrid_header_row"`
	CapacityYear   int    `yaml:"capacity_year"` // EIA data year of the demand-side capacity layer
}

// VIUSParams configure the survey report
type VIUSParams struct {
	HistogramBins int    `yaml:"histogram_bins"`
	OutputDir     string `yaml:"output_dir"`
	XLSX          bool   `yaml:"xlsx"`
}

// CircleParams configure the identify-in-circle utility
type CircleParams struct {
	Latitude    float64  `yaml:"latitude"`
	Longitude   float64  `yaml:"longitude"`
	RadiusMiles float64  `yaml:"radius_miles"`
	Name        string   `yaml:"name"`
	Layers      []string `yaml:"layers"` // point layers to search
}

// RatesParams configure the electricity price layers
type RatesParams struct {
	Year        int `yaml:"year"`         // EIA sales data year
	PriceColumn int `yaml:"price_column"` // 0-based column of the commercial price in cents/kWh
}

// LoadParams configure the charging load profiles
type LoadParams struct {
	Samples int `yaml:"samples"` // points of the smoothed daily profile
}

// SimplifyParams configure the web copies
type SimplifyParams struct {
	Tolerance float64 `yaml:"tolerance"` // meters in EPSG:3857
}

// PublishParams configure uploads to object storage
type PublishParams struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// DefaultPipeline returns the documented defaults
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		DataDir:    "./data",
		GeoJSONDir: "./web/geojsons_simplified",
		Inputs: Inputs{
			NetworkLinks:  "FAF5_network_links/Freight_Analysis_Framework_(FAF5)_Network_Links.shp",
			FlowTable:     "FAF5_highway_assignment_results/FAF5_2022_Highway_Assignment_Results/CSV Format/FAF5 Total Truck Flows by Commodity_2022.csv",
			TruckStops:    "Truck_Stop_Parking/Truck_Stop_Parking.shp",
			StateBounds:   "state_boundaries/tl_2012_us_state.shp",
			PayloadFit:    "payload_vs_mileage_best_fit_params.csv",
			VIUS:          "VIUS_2021/vius_2021_puf.csv",
			EIACapacity:   "eia2022_state/existcapacity_annual.xlsx",
			EIAGeneration: "eia2022_state/annual_generation_state.xlsx",
			EGRID:         "eGRID2021_data.xlsx",
			EGRIDRegions:  "egrid2020_subregions/eGRID2020_subregions.shp",
			EIAStateRates: "eia2022_state/co2_by_state.csv",
			HourlyDir:     "daily_carbon_intensity_data_usa",
			ISOBoundaries: "world.geojson",
			PolicyDir:     "incentives_and_regulations/state_level",

			StateElectricityRates: "electricity_rates/sales_annual_a.xlsx",
			ZipcodeRates:          "electricity_rates/iou_zipcodes_2020.csv",
			ZipcodeBounds:         "zip_code_regions/USA_ZIP_Code_Boundaries.shp",
			DemandCharges:         "Demand_charge_rate_data.xlsm",
			UtilityBounds:         "utility_boundaries/Electric_Retail_Service_Territories.shp",

			BADemand: []string{
				"power_demand_by_balancing_authority/EIA930_BALANCE_2022_Jan_Jun.csv",
				"power_demand_by_balancing_authority/EIA930_BALANCE_2022_Jul_Dec.csv",
			},
			BABounds: "balancing_authority_boundaries/Planning_Areas.shp",

			LoadProfile:      "Borlaug_et_al_most_extreme_HDEV_load_profile.csv",
			ChargerLocations: "TT_charger_locations.json",

			GREETTruck:       "GREET_LCA/truck_combination_long_haul_diesel_wtw.csv",
			GREETRail:        "GREET_LCA/rail_freight_diesel_wtw.csv",
			GREETShipFeed:    "GREET_LCA/marine_msd_mdo_05sulfur_wth_feedstock.csv",
			GREETShipConv:    "GREET_LCA/marine_msd_mdo_05sulfur_wth_conversion.csv",
			GREETShipCombust: "GREET_LCA/marine_msd_mdo_05sulfur_wth_combustion.csv",
		},
		Highway: HighwayParams{Year: 22, MinTons: 10000, LengthTolerance: 0.05},
		Corridor: CorridorParams{
			BufferMeters:      1000,
			MinDistance:       80500,
			TargetAvgDistance: 160934,
			Seed:              seed(1),
		},
		Neighbors: NeighborParams{RadiusMiles: 200},
		Charging: ChargingParams{
			RangeMiles:   200,
			ChargingTime: 4,
			MaxWait:      1,
			Sweep: SweepGrid{
				Ranges:        []float64{100, 200, 300, 400},
				ChargingTimes: []float64{0.5, 1, 2, 4},
				MaxWaits:      []float64{0.25, 0.5, 1, 2},
			},
		},
		Energy: EnergyParams{Efficiency: 0.92, Year: 2022},
		Grid:   GridParams{EGRIDSheet: "SRL21", EGRIDHeaderRow: 2, CapacityYear: 2021},
		VIUS:   VIUSParams{HistogramBins: 20, OutputDir: "vius_tables"},
		Circle: CircleParams{
			Latitude:    33,
			Longitude:   -97,
			RadiusMiles: 600,
			Name:        "default",
			Layers:      []string{"Truck_Stop_Parking/Truck_Stop_Parking.shp"},
		},
		Rates:    RatesParams{Year: 2021, PriceColumn: 9},
		Load:     LoadParams{Samples: 300},
		Simplify: SimplifyParams{Tolerance: 1000},
		Layers:   DefaultLayers(),
	}
}

// DefaultLayers is the web map index in display order
func DefaultLayers() []models.LayerEntry {
	return []models.LayerEntry{
		{Name: "Grid Emission Intensity", Path: "egrid2020_subregions_merged/egrid2020_subregions_merged.geojson", Stage: "grid"},
		{Name: "State Grid Emission Intensity", Path: "eia2022_state_merged/eia_state_co2_merged.geojson", Stage: "grid"},
		{Name: "Hourly Grid Emissions", Path: "daily_grid_emission_profiles/daily_grid_emission_profile_hour0.geojson", Stage: "grid"},
		{Name: "Grid Generation and Capacity", Path: "eia2022_state_merged/gen_cap_2022_state_merged.geojson", Stage: "gen-cap"},
		{Name: "Highway Flows (Interstate)", Path: "highway_assignment_links/highway_assignment_links_interstate.geojson", Stage: "join-flows"},
		{Name: "Highway Flows (SU)", Path: "highway_assignment_links/highway_assignment_links_single_unit.geojson", Stage: "join-flows"},
		{Name: "Highway Flows (CU)", Path: "highway_assignment_links/highway_assignment_links_combined_unit.geojson", Stage: "join-flows"},
		{Name: "Truck Stop Locations", Path: "Truck_Stop_Parking/Truck_Stop_Parking_Along_Interstate.geojson", Stage: "corridor"},
		{Name: "State-Level Incentives and Regulations", Path: "incentives_and_regulations_merged/all_incentives_and_regulations.geojson", Stage: "policy"},
		{Name: "Truck Stop Charging", Path: "Truck_Stop_Parking/Truck_Stop_Parking_Along_Interstate_with_min_chargers_range_200.0_chargingtime_4.0_maxwait_0.5.geojson", Stage: "sweep"},
		{Name: "Commercial Electricity Price by State", Path: "electricity_rates_merged/electricity_rates_by_state_merged.geojson", Stage: "rates"},
		{Name: "Maximum Demand Charge by Utility", Path: "electricity_rates_merged/demand_charges_merged.geojson", Stage: "rates"},
		{Name: "Electricity Demand by Balancing Authority", Path: "electricity_demand_merged/electricity_demand_merged_by_ba.geojson", Stage: "grid-demand"},
		{Name: "Summer Capacity by State", Path: "electricity_demand_merged/electricity_demand_merged_by_state.geojson", Stage: "grid-demand"},
		{Name: "Energy Demand from Electrified Trucking", Path: "trucking_energy_demand/trucking_energy_demand.geojson", Stage: "energy-demand"},
	}
}

func seed(v int64) *int64 {
	return &v
}

// LoadPipeline reads a YAML file over the defaults. An empty path returns
// the defaults.
func LoadPipeline(path string) (*Pipeline, error) {
	p := DefaultPipeline()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config %s: %w", path, err)
	}
	return p, nil
}

// Apply overlays process settings onto the pipeline
func (p *Pipeline) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if os.Getenv("DATA_DIR") != "" {
		p.DataDir = cfg.DataDir
	}
	if os.Getenv("GEOJSON_DIR") != "" {
		p.GeoJSONDir = cfg.GeoJSONDir
	}
	if p.Publish.Bucket == "" {
		p.Publish.Bucket = cfg.S3LayerBucket
	}
	if p.Publish.Region == "" {
		p.Publish.Region = cfg.AWSRegion
	}
}

// Path resolves an input or output path against DataDir
func (p *Pipeline) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.DataDir, rel)
}
