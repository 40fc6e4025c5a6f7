package main

import (
	"context"
	"log"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/api"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/database"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/service"

	// Import stage packages to register them
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/stages"
)

func main() {
	cfg := config.Load()

	pipeline, err := config.LoadPipeline(cfg.PipelineConfig)
	if err != nil {
		log.Fatal("Failed to load pipeline config:", err)
	}
	pipeline.Apply(cfg)

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	store, err := service.NewLayerStore(context.Background(), cfg, pipeline)
	if err != nil {
		log.Fatal("Failed to open layer store:", err)
	}

	layers := service.NewLayerService(pipeline.Layers, store)
	runs := service.NewStageRunService(repository.NewStageRunRepository(database.GetDB()))
	router := api.SetupRouter(cfg, layers, runs)

	log.Printf("Server starting on port %s (layer store: %s)", cfg.Port, cfg.LayerStore)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
