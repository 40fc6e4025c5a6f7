// Package config loads the process environment and the YAML pipeline file.
package config

import (
	"os"
)

// Layer stores
const (
	LayerStoreFile = "file"
	LayerStoreS3   = "s3"
)

// Config holds process level settings read from the environment
type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string // empty disables bearer auth
	DataDir        string
	GeoJSONDir     string
	PipelineConfig string // optional YAML path

	LayerStore    string
	S3LayerBucket string
	AWSRegion     string
}

// Load reads the environment, falling back to defaults
func Load() *Config {
	return &Config{
		Port:           getenv("PORT", ":8080"),
		DBPath:         getenv("DB_PATH", "./data/pipeline.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DataDir:        getenv("DATA_DIR", "./data"),
		GeoJSONDir:     getenv("GEOJSON_DIR", "./web/geojsons_simplified"),
		PipelineConfig: os.Getenv("PIPELINE_CONFIG"),
		LayerStore:     getenv("LAYER_STORE", LayerStoreFile),
		S3LayerBucket:  os.Getenv("S3_LAYER_BUCKET"),
		AWSRegion:      getenv("AWS_REGION", "us-east-1"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
