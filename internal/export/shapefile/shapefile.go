// Package shapefile writes an ESRI shapefile 5-file set (cpg, dbf, prj,
// shp, shx) for a GeoJSON Polygon or MultiPolygon in WGS84. Only the
// polygon subset of the format needed for area-of-interest exports is
// implemented.
package shapefile

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Extensions of a complete shapefile set, in upload order.
var Extensions = []string{"cpg", "dbf", "prj", "shp", "shx"}

const (
	shapeTypePolygon = 5
	fileCode         = 9994
	shpVersion       = 1000

	wgs84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`
)

type point struct {
	X, Y float64
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Write materializes the geometry under dir as basename.{cpg,dbf,prj,shp,shx}
// and returns the written paths in Extensions order.
func Write(dir, basename string, geojson []byte) ([]string, error) {
	rings, err := parseRings(geojson)
	if err != nil {
		return nil, err
	}

	shp, shx, err := encodePolygon(rings)
	if err != nil {
		return nil, err
	}

	contents := map[string][]byte{
		"cpg": []byte("UTF-8"),
		"dbf": encodeDBF(),
		"prj": []byte(wgs84),
		"shp": shp,
		"shx": shx,
	}

	paths := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		path := filepath.Join(dir, basename+"."+ext)
		if err := os.WriteFile(path, contents[ext], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// parseRings flattens a Polygon or MultiPolygon into shapefile rings:
// outer rings clockwise, holes counter-clockwise.
func parseRings(geojson []byte) ([][]point, error) {
	var g geometry
	if err := json.Unmarshal(geojson, &g); err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}

	var polygons [][][][2]float64
	switch g.Type {
	case "Polygon":
		var poly [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("parse polygon coordinates: %w", err)
		}
		polygons = [][][][2]float64{poly}
	case "MultiPolygon":
		if err := json.Unmarshal(g.Coordinates, &polygons); err != nil {
			return nil, fmt.Errorf("parse multipolygon coordinates: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}

	var rings [][]point
	for _, poly := range polygons {
		for i, raw := range poly {
			if len(raw) < 4 {
				return nil, fmt.Errorf("ring with %d points", len(raw))
			}
			ring := make([]point, len(raw))
			for j, c := range raw {
				ring[j] = point{X: c[0], Y: c[1]}
			}
			// Shapefile winding: outer ring CW, holes CCW.
			if outer := i == 0; outer == isCounterClockwise(ring) {
				reverse(ring)
			}
			rings = append(rings, ring)
		}
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("geometry has no rings")
	}
	return rings, nil
}

func isCounterClockwise(ring []point) bool {
	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += (ring[i+1].X - ring[i].X) * (ring[i+1].Y + ring[i].Y)
	}
	return sum < 0
}

func reverse(ring []point) {
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
}

// encodePolygon writes the rings as a single polygon record and returns the
// .shp and .shx file contents.
func encodePolygon(rings [][]point) (shp, shx []byte, err error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	numPoints := 0
	for _, ring := range rings {
		numPoints += len(ring)
		for _, p := range ring {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	content := &bytes.Buffer{}
	le := binary.LittleEndian
	binary.Write(content, le, int32(shapeTypePolygon))
	binary.Write(content, le, [4]float64{minX, minY, maxX, maxY})
	binary.Write(content, le, int32(len(rings)))
	binary.Write(content, le, int32(numPoints))
	offset := int32(0)
	for _, ring := range rings {
		binary.Write(content, le, offset)
		offset += int32(len(ring))
	}
	for _, ring := range rings {
		for _, p := range ring {
			binary.Write(content, le, p.X)
			binary.Write(content, le, p.Y)
		}
	}

	contentWords := int32(content.Len() / 2)

	shpBuf := &bytes.Buffer{}
	writeMainHeader(shpBuf, int32((100+8+content.Len())/2), minX, minY, maxX, maxY)
	binary.Write(shpBuf, binary.BigEndian, int32(1)) // record number
	binary.Write(shpBuf, binary.BigEndian, contentWords)
	shpBuf.Write(content.Bytes())

	shxBuf := &bytes.Buffer{}
	writeMainHeader(shxBuf, int32((100+8)/2), minX, minY, maxX, maxY)
	binary.Write(shxBuf, binary.BigEndian, int32(50)) // record offset in words
	binary.Write(shxBuf, binary.BigEndian, contentWords)

	return shpBuf.Bytes(), shxBuf.Bytes(), nil
}

func writeMainHeader(buf *bytes.Buffer, fileLengthWords int32, minX, minY, maxX, maxY float64) {
	be, le := binary.BigEndian, binary.LittleEndian
	binary.Write(buf, be, int32(fileCode))
	binary.Write(buf, be, [5]int32{})
	binary.Write(buf, be, fileLengthWords)
	binary.Write(buf, le, int32(shpVersion))
	binary.Write(buf, le, int32(shapeTypePolygon))
	binary.Write(buf, le, [4]float64{minX, minY, maxX, maxY})
	binary.Write(buf, le, [4]float64{}) // z and m ranges
}

// encodeDBF writes a minimal dBASE III table: one record, no fields.
func encodeDBF() []byte {
	now := time.Now()
	buf := &bytes.Buffer{}
	le := binary.LittleEndian
	buf.WriteByte(0x03)
	buf.WriteByte(byte(now.Year() - 1900))
	buf.WriteByte(byte(now.Month()))
	buf.WriteByte(byte(now.Day()))
	binary.Write(buf, le, uint32(1))  // record count
	binary.Write(buf, le, uint16(33)) // header size: 32 + terminator
	binary.Write(buf, le, uint16(1))  // record size: deletion flag only
	buf.Write(make([]byte, 20))
	buf.WriteByte(0x0D) // header terminator
	buf.WriteByte(0x20) // the one (undeleted) record
	buf.WriteByte(0x1A) // EOF
	return buf.Bytes()
}
