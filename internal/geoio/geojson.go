package geoio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// ReadGeoJSON loads a feature collection. GeoJSON is always EPSG:4326.
// The schema is the sorted union of property keys; numeric properties become
// float fields and everything else string fields.
func ReadGeoJSON(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}

	layer := &Layer{Name: baseName(path), CRS: spatial.EPSG4326}
	types := make(map[string]FieldType)
	for _, f := range fc.Features {
		props := f.Properties
		if props == nil {
			props = geojson.Properties{}
		}
		for k, v := range props {
			if _, ok := types[k]; ok {
				continue
			}
			switch v.(type) {
			case float64:
				types[k] = TypeFloat
			case nil:
			default:
				types[k] = TypeString
			}
		}
		layer.Features = append(layer.Features, &Feature{Geometry: f.Geometry, Properties: props})
	}

	names := make([]string, 0, len(types))
	for k := range types {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		if types[n] == TypeFloat {
			layer.Fields = append(layer.Fields, FloatField(n))
		} else {
			layer.Fields = append(layer.Fields, StringField(n, 254))
		}
	}

	return layer, nil
}

// EncodeGeoJSON renders the layer as a feature collection in EPSG:4326.
// Only schema fields are emitted; NaN and infinite values become null.
func EncodeGeoJSON(layer *Layer) ([]byte, error) {
	out, err := layer.Project(spatial.EPSG4326)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range out.Features {
		gf := geojson.NewFeature(f.Geometry)
		for _, fld := range out.Fields {
			v, ok := f.Properties[fld.Name]
			if !ok {
				continue
			}
			if x, isFloat := v.(float64); isFloat && (math.IsNaN(x) || math.IsInf(x, 0)) {
				v = nil
			}
			gf.Properties[fld.Name] = v
		}
		fc.Append(gf)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode geojson for %s: %w", layer.Name, err)
	}
	return data, nil
}

// WriteGeoJSON writes the layer to path in EPSG:4326
func WriteGeoJSON(path string, layer *Layer) error {
	data, err := EncodeGeoJSON(layer)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geojson: %w", err)
	}
	return nil
}
