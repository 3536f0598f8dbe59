package mvt

import (
	"fmt"
	"strings"
)

// GeomType is the geometry type of a feature.
type GeomType uint8

const (
	Point GeomType = iota + 1
	Linestring
	Polygon
)

// String returns the name used in the MVT schema.
func (g GeomType) String() string {
	switch g {
	case Point:
		return "POINT"
	case Linestring:
		return "LINESTRING"
	case Polygon:
		return "POLYGON"
	default:
		return fmt.Sprintf("GeomType(%d)", uint8(g))
	}
}

// ParseGeomType parses a geometry type name, case-insensitively.
func ParseGeomType(s string) (GeomType, error) {
	switch strings.ToLower(s) {
	case "point":
		return Point, nil
	case "linestring":
		return Linestring, nil
	case "polygon":
		return Polygon, nil
	}
	return 0, fmt.Errorf("unknown geometry type %q", s)
}

// wireType maps g to the Tile.GeomType enum of the vector tile schema.
func (g GeomType) wireType() uint64 {
	switch g {
	case Point:
		return 1
	case Linestring:
		return 2
	case Polygon:
		return 3
	default:
		panic(fmt.Sprintf("mvt: invalid geometry type %d", uint8(g)))
	}
}

// Geometry is the output of a geometry encoder: a geometry type plus the
// command/zigzag-delta encoded coordinate stream of the vector tile format.
// The stream is stored verbatim and never validated.
type Geometry interface {
	GeomType() GeomType
	Commands() []uint32
}

// EncodedGeometry is a Geometry whose command stream was produced elsewhere.
type EncodedGeometry struct {
	Type GeomType
	Data []uint32
}

func (g EncodedGeometry) GeomType() GeomType { return g.Type }

func (g EncodedGeometry) Commands() []uint32 { return g.Data }
