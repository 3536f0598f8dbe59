package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/multun/mvt"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Points returns n random points inside [0, extent). An extent of 0 means
// DefaultExtent.
func (r *RNG) Points(n int, extent uint32) [][2]int32 {
	if extent == 0 {
		extent = DefaultExtent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pts := make([][2]int32, n)
	for i := range pts {
		pts[i] = [2]int32{int32(r.rand.Intn(int(extent))), int32(r.rand.Intn(int(extent)))}
	}
	return pts
}

const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

func command(id, count uint32) uint32 {
	return id&0x7 | count<<3
}

func zigzag(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// commands encodes a cursor-relative vertex run starting with MoveTo.
func commands(pts [][2]int32, cursor *[2]int32, dst []uint32) []uint32 {
	for i, p := range pts {
		switch i {
		case 0:
			dst = append(dst, command(cmdMoveTo, 1))
		case 1:
			dst = append(dst, command(cmdLineTo, uint32(len(pts)-1)))
		}
		dst = append(dst, zigzag(p[0]-cursor[0]), zigzag(p[1]-cursor[1]))
		*cursor = p
	}
	return dst
}

// Point encodes a (multi)point geometry.
func Point(pts ...[2]int32) mvt.EncodedGeometry {
	var cursor [2]int32
	data := []uint32{command(cmdMoveTo, uint32(len(pts)))}
	for _, p := range pts {
		data = append(data, zigzag(p[0]-cursor[0]), zigzag(p[1]-cursor[1]))
		cursor = p
	}
	return mvt.EncodedGeometry{Type: mvt.Point, Data: data}
}

// LineString encodes a single line string with at least two vertices.
func LineString(pts [][2]int32) mvt.EncodedGeometry {
	if len(pts) < 2 {
		panic(fmt.Sprintf("testutil: line string needs 2 vertices, got %d", len(pts)))
	}
	var cursor [2]int32
	return mvt.EncodedGeometry{Type: mvt.Linestring, Data: commands(pts, &cursor, nil)}
}

// Polygon encodes rings as a polygon. Each ring lists its vertices without
// repeating the first one; winding order is the caller's responsibility.
func Polygon(rings ...[][2]int32) mvt.EncodedGeometry {
	var (
		cursor [2]int32
		data   []uint32
	)
	for _, ring := range rings {
		if len(ring) < 3 {
			panic(fmt.Sprintf("testutil: ring needs 3 vertices, got %d", len(ring)))
		}
		data = commands(ring, &cursor, data)
		data = append(data, command(cmdClosePath, 1))
	}
	return mvt.EncodedGeometry{Type: mvt.Polygon, Data: data}
}

// DefaultExtent is the extent used when none is given.
const DefaultExtent = 4096

// TileShape controls RandomTile.
type TileShape struct {
	Extent   uint32 // defaults to DefaultExtent
	Layers   int
	Features int // per layer
	Tags     int // per feature
	// Cardinality bounds the distinct values per tag key. Defaults to 16.
	Cardinality int
	// MinStringLen pads layer names, keys and string values to at least
	// this many bytes.
	MinStringLen int
}

// RandomTile builds a tile of random features. Every feature has an id
// unique within its layer.
func RandomTile(r *RNG, shape TileShape, opts ...mvt.Option) *mvt.Tile {
	if shape.Extent == 0 {
		shape.Extent = DefaultExtent
	}
	if shape.Cardinality <= 0 {
		shape.Cardinality = 16
	}
	tile := mvt.NewTile(shape.Extent, opts...)
	for l := 0; l < shape.Layers; l++ {
		layer := tile.CreateLayer(pad(fmt.Sprintf("layer_%d", l), shape.MinStringLen))
		for i := 0; i < shape.Features; i++ {
			f := layer.IntoFeature(randomGeometry(r, shape.Extent))
			if err := f.SetID(uint64(i)); err != nil {
				panic(err)
			}
			for t := 0; t < shape.Tags; t++ {
				f.AddTag(pad(fmt.Sprintf("key_%d", t), shape.MinStringLen), randomValue(r, t, shape))
			}
			layer = f.IntoLayer()
		}
		if err := tile.AddLayer(layer); err != nil {
			panic(err)
		}
	}
	return tile
}

func randomGeometry(r *RNG, extent uint32) mvt.EncodedGeometry {
	switch r.Intn(3) {
	case 0:
		return Point(r.Points(1, extent)...)
	case 1:
		return LineString(r.Points(2+r.Intn(8), extent))
	default:
		return Polygon(r.Points(3+r.Intn(6), extent))
	}
}

// randomValue picks a value whose kind depends on the tag position, so a
// key keeps a single kind across features.
func randomValue(r *RNG, pos int, shape TileShape) mvt.Value {
	cardinality := shape.Cardinality
	n := r.Intn(cardinality)
	switch pos % 5 {
	case 0:
		return mvt.StringValue(pad(fmt.Sprintf("value_%d", n), shape.MinStringLen))
	case 1:
		return mvt.UintValue(uint64(n))
	case 2:
		return mvt.SintValue(int64(n - cardinality/2))
	case 3:
		return mvt.DoubleValue(float64(n) / 4)
	default:
		return mvt.BoolValue(n%2 == 0)
	}
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat("_", n-len(s))
}
