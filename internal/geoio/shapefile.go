package geoio

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/spatial"
)

// ReadShapefile loads a shapefile and its sibling .prj into memory
func ReadShapefile(path string) (*Layer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}

	crs, err := readPRJ(path)
	if err != nil {
		return nil, err
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", path, err)
	}
	defer r.Close()

	layer := &Layer{Name: baseName(path), CRS: crs}
	for _, f := range r.Fields() {
		layer.Fields = append(layer.Fields, Field{
			Name:      strings.TrimSpace(f.String()),
			Type:      FieldType(f.Fieldtype),
			Size:      f.Size,
			Precision: f.Precision,
		})
	}

	for r.Next() {
		row, shape := r.Shape()
		g, err := toOrb(shape)
		if err != nil {
			return nil, fmt.Errorf("failed to read shape %d of %s: %w", row, path, err)
		}

		props := make(geojson.Properties, len(layer.Fields))
		for i, f := range layer.Fields {
			raw := strings.Trim(r.ReadAttribute(row, i), " \x00")
			if v := parseAttribute(f, raw); v != nil {
				props[f.Name] = v
			}
		}
		layer.Features = append(layer.Features, &Feature{Geometry: g, Properties: props})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile %s: %w", path, err)
	}

	return layer, nil
}

// WriteShapefile writes a layer as .shp/.shx/.dbf plus a .prj for its CRS
func WriteShapefile(path string, layer *Layer) error {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return fmt.Errorf("shapefile path must end in .shp: %s", path)
	}
	seen := make(map[string]string, len(layer.Fields))
	for _, f := range layer.Fields {
		name := DBFName(f.Name)
		if name == "" {
			return fmt.Errorf("%w: %q", ErrFieldName, f.Name)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q and %q both truncate to %q", ErrFieldName, prev, f.Name, name)
		}
		seen[name] = f.Name
	}

	shapeType, err := shapeTypeOf(layer)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w, err := shp.Create(path, shapeType)
	if err != nil {
		return fmt.Errorf("failed to create shapefile %s: %w", path, err)
	}
	defer w.Close()

	fields := make([]shp.Field, len(layer.Fields))
	for i, f := range layer.Fields {
		fields[i] = f.toShp()
	}
	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("failed to set fields: %w", err)
	}

	for i, feat := range layer.Features {
		shape, err := fromOrb(feat.Geometry)
		if err != nil {
			return fmt.Errorf("failed to convert feature %d: %w", i, err)
		}
		row := int(w.Write(shape))
		for j, f := range layer.Fields {
			v, ok := attributeValue(f, feat.Properties[f.Name])
			if !ok {
				continue
			}
			if err := w.WriteAttribute(row, j, v); err != nil {
				return fmt.Errorf("failed to write attribute %s of feature %d: %w", f.Name, i, err)
			}
		}
	}

	return writePRJ(path, layer.CRS)
}

// DBFName truncates an attribute name to the 10 bytes a DBF header holds
func DBFName(name string) string {
	if len(name) > MaxFieldName {
		name = name[:MaxFieldName]
	}
	return strings.TrimSpace(name)
}

func (f Field) toShp() shp.Field {
	name := DBFName(f.Name)
	switch f.Type {
	case TypeString:
		size := f.Size
		if size == 0 {
			size = 80
		}
		return shp.StringField(name, size)
	case TypeFloat:
		return shp.FloatField(name, f.Size, f.Precision)
	default:
		if f.Precision > 0 {
			return shp.FloatField(name, f.Size, f.Precision)
		}
		return shp.NumberField(name, f.Size)
	}
}

func parseAttribute(f Field, raw string) interface{} {
	switch f.Type {
	case TypeNumber, TypeFloat:
		if raw == "" || strings.HasPrefix(raw, "*") {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return v
	default:
		return raw
	}
}

func attributeValue(f Field, v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}

	switch f.Type {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, true
		}
		return fmt.Sprint(v), true
	default:
		var x float64
		switch n := v.(type) {
		case float64:
			x = n
		case int:
			x = float64(n)
		case int64:
			x = float64(n)
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, false
			}
			x = parsed
		default:
			return nil, false
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		if f.Type == TypeNumber && f.Precision == 0 {
			return int(math.Round(x)), true
		}
		return x, true
	}
}

func shapeTypeOf(layer *Layer) (shp.ShapeType, error) {
	var found shp.ShapeType
	for i, f := range layer.Features {
		var st shp.ShapeType
		switch f.Geometry.(type) {
		case orb.Point:
			st = shp.POINT
		case orb.MultiPoint:
			st = shp.MULTIPOINT
		case orb.LineString, orb.MultiLineString:
			st = shp.POLYLINE
		case orb.Polygon, orb.MultiPolygon:
			st = shp.POLYGON
		case nil:
			continue
		default:
			return 0, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, f.Geometry)
		}
		if found != shp.NULL && st != found {
			return 0, fmt.Errorf("%w: feature %d mixes shape types in %s", ErrUnsupportedGeometry, i, layer.Name)
		}
		found = st
	}
	if found == shp.NULL {
		return shp.POINT, nil
	}
	return found, nil
}

func toOrb(s shp.Shape) (orb.Geometry, error) {
	switch v := s.(type) {
	case *shp.Null, nil:
		return nil, nil
	case *shp.Point:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, nil
	case *shp.MultiPoint:
		mp := make(orb.MultiPoint, len(v.Points))
		for i, p := range v.Points {
			mp[i] = orb.Point{p.X, p.Y}
		}
		return mp, nil
	case *shp.PolyLine:
		return lineGeometry(splitParts(v.Parts, v.Points)), nil
	case *shp.PolyLineZ:
		return lineGeometry(splitParts(v.Parts, v.Points)), nil
	case *shp.Polygon:
		return polygonGeometry(splitParts(v.Parts, v.Points)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, s)
}

func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		seg := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			seg = append(seg, orb.Point{p.X, p.Y})
		}
		out = append(out, seg)
	}
	return out
}

func lineGeometry(parts [][]orb.Point) orb.Geometry {
	if len(parts) == 1 {
		return orb.LineString(parts[0])
	}
	mls := make(orb.MultiLineString, len(parts))
	for i, p := range parts {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// polygonGeometry groups shapefile rings: clockwise rings start a new
// polygon, counter-clockwise rings are holes of the previous one.
func polygonGeometry(parts [][]orb.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, p := range parts {
		ring := orb.Ring(p)
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

func fromOrb(g orb.Geometry) (shp.Shape, error) {
	switch v := g.(type) {
	case orb.Point:
		return &shp.Point{X: v[0], Y: v[1]}, nil
	case orb.MultiPoint:
		pts := toShpPoints(v)
		return &shp.MultiPoint{Box: boxOf(pts), NumPoints: int32(len(pts)), Points: pts}, nil
	case orb.LineString:
		return shp.NewPolyLine([][]shp.Point{toShpPoints(v)}), nil
	case orb.MultiLineString:
		parts := make([][]shp.Point, len(v))
		for i, ls := range v {
			parts[i] = toShpPoints(ls)
		}
		return shp.NewPolyLine(parts), nil
	case orb.Polygon:
		poly := shp.Polygon(*shp.NewPolyLine(polygonParts(v)))
		return &poly, nil
	case orb.MultiPolygon:
		var parts [][]shp.Point
		for _, p := range v {
			parts = append(parts, polygonParts(p)...)
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		return &poly, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
}

// polygonParts orients the outer ring clockwise and holes counter-clockwise
func polygonParts(p orb.Polygon) [][]shp.Point {
	parts := make([][]shp.Point, len(p))
	for i, r := range p {
		ring := append(orb.Ring(nil), r...)
		want := orb.CW
		if i > 0 {
			want = orb.CCW
		}
		if ring.Orientation() != want {
			ring.Reverse()
		}
		parts[i] = toShpPoints(ring)
	}
	return parts
}

func toShpPoints[T ~[]orb.Point](pts T) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func boxOf(pts []shp.Point) shp.Box {
	if len(pts) == 0 {
		return shp.Box{}
	}
	b := shp.Box{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

func prjPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
}

func readPRJ(path string) (spatial.CRS, error) {
	data, err := os.ReadFile(prjPath(path))
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[geoio] No .prj for %s, assuming %s", path, spatial.EPSG4326)
		return spatial.EPSG4326, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read projection file: %w", err)
	}
	crs, err := spatial.ParsePRJ(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse projection of %s: %w", path, err)
	}
	return crs, nil
}

func writePRJ(path string, crs spatial.CRS) error {
	if err := os.WriteFile(prjPath(path), []byte(crs.WKT()), 0o644); err != nil {
		return fmt.Errorf("failed to write projection file: %w", err)
	}
	return nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
