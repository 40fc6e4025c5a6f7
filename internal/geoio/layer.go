// Package geoio reads and writes the geospatial layers exchanged between
// pipeline stages: ESRI shapefiles for intermediate artifacts and simplified
// GeoJSON for the web layer.
package geoio

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

var (
	// ErrUnknownColumn is returned when a required attribute is missing from a layer
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnsupportedGeometry is returned for shapes the pipeline does not handle
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
	// ErrFieldName is returned for attribute names that do not fit a DBF header
	ErrFieldName = errors.New("invalid field name")
)

// MaxFieldName is the longest attribute name a DBF header can carry
const MaxFieldName = 10

// FieldType mirrors the DBF field type byte
type FieldType byte

// DBF field types
const (
	TypeString FieldType = 'C'
	TypeNumber FieldType = 'N'
	TypeFloat  FieldType = 'F'
)

// Field describes one attribute column
type Field struct {
	Name      string
	Type      FieldType
	Size      uint8
	Precision uint8
}

// StringField returns a character field
func StringField(name string, size uint8) Field {
	return Field{Name: name, Type: TypeString, Size: size}
}

// IntField returns an integer numeric field
func IntField(name string) Field {
	return Field{Name: name, Type: TypeNumber, Size: 18}
}

// FloatField returns a floating point field with 8 decimals
func FloatField(name string) Field {
	return Field{Name: name, Type: TypeFloat, Size: 24, Precision: 8}
}

// Feature is one geometry with its attributes
type Feature struct {
	Geometry   orb.Geometry
	Properties geojson.Properties
}

// NewFeature creates a feature with an empty property map
func NewFeature(g orb.Geometry) *Feature {
	return &Feature{Geometry: g, Properties: geojson.Properties{}}
}

// Float returns a numeric attribute. Missing, null and unparsable values report false.
func (f *Feature) Float(name string) (float64, bool) {
	switch v := f.Properties[name].(type) {
	case float64:
		return v, !math.IsNaN(v)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return x, err == nil
	}
	return 0, false
}

// Int returns an integer attribute
func (f *Feature) Int(name string) (int, bool) {
	v, ok := f.Float(name)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

// String returns an attribute formatted as text
func (f *Feature) String(name string) string {
	switch v := f.Properties[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a deep copy of the feature
func (f *Feature) Clone() *Feature {
	props := make(geojson.Properties, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	var g orb.Geometry
	if f.Geometry != nil {
		g = orb.Clone(f.Geometry)
	}
	return &Feature{Geometry: g, Properties: props}
}

// Layer is an in-memory geospatial table with an ordered schema
type Layer struct {
	Name     string
	CRS      spatial.CRS
	Fields   []Field
	Features []*Feature
}

// NewLayer creates an empty layer
func NewLayer(name string, crs spatial.CRS, fields ...Field) *Layer {
	return &Layer{Name: name, CRS: crs, Fields: fields}
}

// Len returns the number of features
func (l *Layer) Len() int {
	return len(l.Features)
}

// Field looks up a field by name
func (l *Layer) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether the schema contains name
func (l *Layer) HasField(name string) bool {
	_, ok := l.Field(name)
	return ok
}

// SetField appends a field to the schema, or replaces the definition with the same name
func (l *Layer) SetField(f Field) {
	for i := range l.Fields {
		if l.Fields[i].Name == f.Name {
			l.Fields[i] = f
			return
		}
	}
	l.Fields = append(l.Fields, f)
}

// Require checks that every named field exists
func (l *Layer) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !l.HasField(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in layer %s: %s", ErrUnknownColumn, l.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Add appends a feature
func (l *Layer) Add(f *Feature) {
	l.Features = append(l.Features, f)
}

// Clone returns a deep copy of the layer
func (l *Layer) Clone() *Layer {
	out := &Layer{Name: l.Name, CRS: l.CRS, Fields: append([]Field(nil), l.Fields...)}
	out.Features = make([]*Feature, len(l.Features))
	for i, f := range l.Features {
		out.Features[i] = f.Clone()
	}
	return out
}

// Project returns a copy of the layer in the target CRS
func (l *Layer) Project(target spatial.CRS) (*Layer, error) {
	out := l.Clone()
	if l.CRS == target {
		return out, nil
	}
	for i, f := range out.Features {
		g, err := spatial.ProjectGeometry(f.Geometry, l.CRS, target)
		if err != nil {
			return nil, fmt.Errorf("failed to project feature %d of %s: %w", i, l.Name, err)
		}
		f.Geometry = g
	}
	out.CRS = target
	return out, nil
}

// Geometries returns the feature geometries in order
func (l *Layer) Geometries() []orb.Geometry {
	out := make([]orb.Geometry, len(l.Features))
	for i, f := range l.Features {
		out[i] = f.Geometry
	}
	return out
}

// Select returns a copy keeping only the named columns, in the given order.
// Unknown names are ignored. A nil column list keeps every field.
func (l *Layer) Select(columns []string) *Layer {
	if columns == nil {
		return l.Clone()
	}

	out := &Layer{Name: l.Name, CRS: l.CRS}
	for _, c := range columns {
		if f, ok := l.Field(c); ok {
			out.Fields = append(out.Fields, f)
		}
	}
	for _, f := range l.Features {
		nf := &Feature{Properties: geojson.Properties{}}
		if f.Geometry != nil {
			nf.Geometry = orb.Clone(f.Geometry)
		}
		for _, fld := range out.Fields {
			if v, ok := f.Properties[fld.Name]; ok {
				nf.Properties[fld.Name] = v
			}
		}
		out.Features = append(out.Features, nf)
	}
	return out
}
