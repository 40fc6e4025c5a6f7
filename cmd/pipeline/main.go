package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/database"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/service"

	// Import stage packages to register them
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/stages"
)

// env is the state shared by every subcommand
type env struct {
	configPath string
	noLedger   bool

	cfg      *config.Config
	pipeline *config.Pipeline
	db       *sql.DB
}

func main() {
	if err := newRootCmd(&env{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:          "pipeline",
		Short:        "Heavy-duty truck electrification analysis pipeline",
		SilenceUsage: true,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if e.db != nil {
				return e.db.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "pipeline YAML file (default: built-in defaults or $PIPELINE_CONFIG)")
	root.PersistentFlags().BoolVar(&e.noLedger, "no-ledger", false, "do not record the run in the stage-run ledger")

	root.AddCommand(
		e.stageCmd("join-flows", "Join highway flows onto the network links", nil),
		e.stageCmd("corridor", "Select and sparsify the truck stops along interstates", nil),
		e.stageCmd("neighbors", "Count truck stops within range of each corridor stop", nil),
		e.sizeChargersCmd(),
		e.stageCmd("sweep", "Size chargers over the full parameter grid", nil),
		e.stageCmd("vius", "Aggregate the vehicle inventory and use survey", nil),
		e.stageCmd("energy-demand", "Roll up trucking energy demand by state", nil),
		e.stageCmd("gen-cap", "Ingest state generation and capacity", nil),
		e.stageCmd("grid", "Ingest grid emission intensities", nil),
		e.stageCmd("grid-demand", "Ingest balancing authority demand and state summer capacity", nil),
		e.stageCmd("rates", "Ingest electricity prices and demand charges", nil),
		e.stageCmd("charging-load", "Build daily charging load profiles per grid zone", nil),
		e.stageCmd("lca", "Split GREET life cycle intensities by stage", nil),
		e.stageCmd("policy", "Aggregate state incentives and regulations", nil),
		e.circleCmd(),
		e.stageCmd("simplify", "Write simplified web copies of every configured layer", nil),
		e.publishCmd(),
		e.runsCmd(),
		e.stagesCmd(),
	)
	return root
}

// load reads config and pipeline settings. openLedger also opens the run
// ledger unless --no-ledger is set.
func (e *env) load(openLedger bool) error {
	e.cfg = config.Load()
	path := e.configPath
	if path == "" {
		path = e.cfg.PipelineConfig
	}
	p, err := config.LoadPipeline(path)
	if err != nil {
		return err
	}
	p.Apply(e.cfg)
	e.pipeline = p

	if !openLedger || e.noLedger {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	conn, err := database.Open(e.cfg.DBPath)
	if err != nil {
		return err
	}
	if err := database.NewMigrationManager(conn).RunMigrations(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	e.db = conn
	return nil
}

func (e *env) runner() *analysis.Runner {
	var tracker analysis.Tracker
	if e.db != nil {
		tracker = service.NewStageRunService(repository.NewStageRunRepository(e.db))
	}
	return analysis.NewRunner(tracker, e.pipeline.Progress)
}

// run executes a registered stage against the loaded pipeline
func (e *env) run(ctx context.Context, name string, params any) error {
	stage, err := analysis.Get(name, e.pipeline)
	if err != nil {
		return err
	}
	res, err := e.runner().Run(ctx, stage, params)
	if err != nil {
		return err
	}
	for _, w := range res.Outputs {
		fmt.Println(w.Shapefile)
	}
	for _, f := range res.Files {
		fmt.Println(f)
	}
	return nil
}

// stageCmd builds a subcommand that runs one stage. override adjusts the
// pipeline from flags after it is loaded and returns the recorded params.
func (e *env) stageCmd(name, short string, override func(cmd *cobra.Command, p *config.Pipeline) any) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.load(true); err != nil {
				return err
			}
			var params any
			if override != nil {
				params = override(cmd, e.pipeline)
			}
			ctx, stop := signalContext()
			defer stop()
			return e.run(ctx, name, params)
		},
	}
}

func (e *env) sizeChargersCmd() *cobra.Command {
	var (
		chargingTime float64
		maxWait      float64
		rangeMiles   float64
		halfFlows    bool
	)
	cmd := e.stageCmd("size-chargers", "Size the minimum charger count at each corridor stop",
		func(cmd *cobra.Command, p *config.Pipeline) any {
			f := cmd.Flags()
			if f.Changed("charging_time") {
				p.Charging.ChargingTime = chargingTime
			}
			if f.Changed("max_wait_time") {
				p.Charging.MaxWait = maxWait
			}
			if f.Changed("range_miles") {
				p.Charging.RangeMiles = rangeMiles
			}
			if f.Changed("half-flows") {
				p.Charging.HalfFlows = halfFlows
			}
			return map[string]any{
				"charging_time": p.Charging.ChargingTime,
				"max_wait":      p.Charging.MaxWait,
				"range_miles":   p.Charging.RangeMiles,
				"half_flows":    p.Charging.HalfFlows,
			}
		})
	cmd.Flags().Float64VarP(&chargingTime, "charging_time", "c", 4, "hours to fully charge one truck")
	cmd.Flags().Float64VarP(&maxWait, "max_wait_time", "m", 1, "maximum allowed average wait in hours")
	cmd.Flags().Float64VarP(&rangeMiles, "range_miles", "r", 200, "truck range in miles")
	cmd.Flags().BoolVar(&halfFlows, "half-flows", false, "use half of each stop's daily trips")
	return cmd
}

func (e *env) circleCmd() *cobra.Command {
	var (
		lat, lon, radius float64
		name             string
		layers           []string
	)
	cmd := e.stageCmd("circle", "Find facilities within a circle around a point",
		func(cmd *cobra.Command, p *config.Pipeline) any {
			f := cmd.Flags()
			if f.Changed("latitude") {
				p.Circle.Latitude = lat
			}
			if f.Changed("longitude") {
				p.Circle.Longitude = lon
			}
			if f.Changed("radius") {
				p.Circle.RadiusMiles = radius
			}
			if f.Changed("name") {
				p.Circle.Name = name
			}
			if f.Changed("layers") {
				p.Circle.Layers = layers
			}
			return p.Circle
		})
	cmd.Flags().Float64VarP(&lat, "latitude", "a", 33, "latitude of the circle center")
	cmd.Flags().Float64VarP(&lon, "longitude", "o", -97, "longitude of the circle center")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 600, "radius in miles")
	cmd.Flags().StringVarP(&name, "name", "n", "default", "name used in the output paths")
	cmd.Flags().StringSliceVar(&layers, "layers", nil, "point shapefiles to search, relative to the data directory")
	return cmd
}

func (e *env) publishCmd() *cobra.Command {
	var bucket, prefix string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the simplified layers to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.load(true); err != nil {
				return err
			}
			p := e.pipeline
			if cmd.Flags().Changed("bucket") {
				p.Publish.Bucket = bucket
			}
			if cmd.Flags().Changed("prefix") {
				p.Publish.Prefix = prefix
			}

			ctx, stop := signalContext()
			defer stop()

			dst, err := service.NewS3StoreFromEnv(ctx, p.Publish.Region, p.Publish.Bucket, p.Publish.Prefix)
			if err != nil {
				return err
			}
			var repo *repository.PublishedLayerRepository
			if e.db != nil {
				repo = repository.NewPublishedLayerRepository(e.db)
			}

			layers := service.NewLayerService(p.Layers, nil)
			res, err := layers.Publish(ctx, service.NewFileStore(p.GeoJSONDir), dst, p.Publish.Bucket, uuid.New().String(), repo)
			if err != nil {
				return err
			}
			for _, l := range res.Published {
				fmt.Printf("s3://%s/%s (%d bytes)\n", l.Bucket, dst.Key(l.Path), l.Bytes)
			}
			for _, m := range res.Missing {
				fmt.Fprintf(os.Stderr, "missing: %s\n", m)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "destination bucket (default: publish.bucket or $S3_LAYER_BUCKET)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix inside the bucket")
	return cmd
}

func (e *env) runsCmd() *cobra.Command {
	var filters models.StageRunFilters
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded stage runs",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if e.noLedger {
				return fmt.Errorf("runs needs the ledger")
			}
			if err := e.load(true); err != nil {
				return err
			}
			runs, err := service.NewStageRunService(repository.NewStageRunRepository(e.db)).ListRuns(filters)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTAGE\tSTATUS\tPROGRESS\tSTARTED\tOUTPUT")
			for _, r := range runs {
				started := "-"
				if r.StartTime > 0 {
					started = time.Unix(r.StartTime, 0).Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n", r.ID, r.Stage, r.Status, r.ProgressPercent, started, r.OutputPath)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filters.Stage, "stage", "", "only runs of this stage")
	cmd.Flags().StringVar(&filters.Status, "status", "", "only runs with this status")
	cmd.Flags().IntVar(&filters.Limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (e *env) stagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List registered stages",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, s := range analysis.Stages() {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}
			w.Flush()
		},
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
