package choropleth

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/series"
)

// Boundaries maps a jurisdiction code to its outline.
type Boundaries map[string]*geom.MultiPolygon

// nameFields are the attribute columns tried, in order, for the region name
// when none is given. They cover the ABS state boundary releases.
var nameFields = []string{"STE_NAME21", "STE_NAME16", "STE_NAME11", "STATE_NAME", "NAME"}

// LoadBoundaries reads state outlines from a polygon shapefile. Records whose
// name does not resolve to a known jurisdiction are skipped.
func LoadBoundaries(path, field string) (Boundaries, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "choropleth: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	idx := -1
	if field != "" {
		idx = fieldIndex(reader, field)
	} else {
		for _, f := range nameFields {
			if idx = fieldIndex(reader, f); idx >= 0 {
				break
			}
		}
	}
	if idx < 0 {
		return nil, eris.Errorf("choropleth: no region name field in %s", path)
	}

	out := make(Boundaries)
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			continue
		}
		j, ok := dataset.LookupJurisdiction(strings.TrimRight(reader.Attribute(idx), "\x00 "))
		if !ok {
			continue
		}
		mp, ok := out[j.Code]
		if !ok {
			mp = geom.NewMultiPolygon(geom.XY)
			out[j.Code] = mp
		}
		if err := appendPolygon(mp, poly); err != nil {
			return nil, eris.Wrapf(err, "choropleth: %s outline", j.Code)
		}
	}

	zap.L().Info("boundaries loaded", zap.String("path", path), zap.Int("regions", len(out)))
	return out, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// appendPolygon adds every part of a shapefile polygon as its own polygon.
func appendPolygon(mp *geom.MultiPolygon, p *shp.Polygon) error {
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}
		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		if err := mp.Push(geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})); err != nil {
			return err
		}
	}
	return nil
}

// Features converts a map description into GeoJSON. Regions with an outline
// become polygons; the rest become capital-city markers whose radius grows
// with the value.
func Features(d series.Description, b Boundaries) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, it := range d.Items {
		props := map[string]interface{}{
			"name":    it.Label,
			"text":    it.Text,
			"fill":    it.Color,
			"opacity": it.Emphasis.Opacity,
			"focused": it.Emphasis.Focused,
			"value":   nil,
		}
		if it.Value.Valid {
			props["value"] = it.Value.Value
		}

		var g geom.T
		if mp, ok := b[it.Key]; ok {
			g = mp
		} else if j, ok := dataset.LookupJurisdiction(it.Key); ok {
			g = geom.NewPointFlat(geom.XY, []float64{j.Lng, j.Lat})
			props["radius"] = MarkerRadius(it.Value, d.Domain)
		} else {
			continue
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         it.Key,
			Geometry:   g,
			Properties: props,
		})
	}
	return fc
}

// MarkerRadius sizes a marker in pixels by the square root of its position in
// the domain, so marker area tracks the value.
func MarkerRadius(v dataset.Number, d aggregate.Domain) float64 {
	const minRadius, maxRadius = 6, 30
	if !v.Valid {
		return minRadius
	}
	return minRadius + (maxRadius-minRadius)*math.Sqrt(d.Normalize(v.Value))
}

// WriteGeoJSON encodes fc to w.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return eris.Wrap(err, "choropleth: encode geojson")
	}
	return nil
}
