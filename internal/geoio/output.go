package geoio

import (
	"fmt"
	"log"
	"path/filepath"
)

// Output writes stage artifacts: the full shapefile under ShapefileDir and a
// simplified GeoJSON with the same relative name under GeoJSONDir.
// An empty GeoJSONDir skips the web copy.
type Output struct {
	ShapefileDir string
	GeoJSONDir   string
	Tolerance    float64
}

// Written lists the files produced for one layer
type Written struct {
	Shapefile string `json:"shapefile"`
	GeoJSON   string `json:"geojson,omitempty"`
}

// Write persists the layer as <rel>.shp and, when configured, <rel>.geojson.
// columns restricts the GeoJSON properties; nil keeps all of them.
func (o Output) Write(layer *Layer, rel string, columns []string) (Written, error) {
	var w Written

	w.Shapefile = filepath.Join(o.ShapefileDir, rel+".shp")
	if err := WriteShapefile(w.Shapefile, layer); err != nil {
		return w, fmt.Errorf("failed to write %s: %w", rel, err)
	}

	if o.GeoJSONDir == "" {
		log.Printf("[geoio] Wrote %s (%d features)", w.Shapefile, layer.Len())
		return w, nil
	}

	simplified, err := Simplify(layer, o.Tolerance, columns)
	if err != nil {
		return w, fmt.Errorf("failed to simplify %s: %w", rel, err)
	}
	w.GeoJSON = filepath.Join(o.GeoJSONDir, rel+".geojson")
	if err := WriteGeoJSON(w.GeoJSON, simplified); err != nil {
		return w, fmt.Errorf("failed to write %s: %w", rel, err)
	}

	log.Printf("[geoio] Wrote %s and %s (%d features)", w.Shapefile, w.GeoJSON, layer.Len())
	return w, nil
}
