package mvt

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(x, y uint32) EncodedGeometry {
	// MoveTo(1) followed by one zigzag encoded coordinate pair.
	return EncodedGeometry{Type: Point, Data: []uint32{9, x << 1, y << 1}}
}

func TestTile(t *testing.T) {
	t.Run("EndToEnd", func(t *testing.T) {
		tile := NewTile(4096)
		layer := tile.CreateLayer("roads")
		feature := layer.IntoFeature(point(25, 17))
		feature.AddTagString("name", "Main St")
		layer = feature.IntoLayer()

		require.NoError(t, tile.AddLayer(layer))
		assert.Equal(t, 1, tile.NumLayers())

		l := tile.layers[0]
		assert.Len(t, l.features, 1)
		assert.Equal(t, []string{"name"}, l.keys)
		assert.Equal(t, []Value{StringValue("Main St")}, l.values)
		assert.Equal(t, []uint32{0, 0}, l.features[0].tags)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		tile := NewTile(4096)
		require.NoError(t, tile.AddLayer(tile.CreateLayer("water")))

		again := tile.CreateLayer("water")
		err := tile.AddLayer(again)
		require.ErrorIs(t, err, ErrDuplicateName)
		assert.Equal(t, 1, tile.NumLayers())

		// The rejected layer still belongs to the caller.
		again = again.IntoFeature(point(1, 1)).IntoLayer()
		assert.Equal(t, 1, again.NumFeatures())
		require.NoError(t, NewTile(4096).AddLayer(again))
	})

	t.Run("CreateLayerDoesNotMutate", func(t *testing.T) {
		tile := NewTile(512)
		l := tile.CreateLayer("a")
		assert.Equal(t, 0, tile.NumLayers())
		assert.Equal(t, uint32(512), l.Extent())
		assert.Equal(t, uint32(Version), l.Version())
		assert.Equal(t, "a", l.Name())
	})

	t.Run("LayerNames", func(t *testing.T) {
		tile := NewTile(4096)
		for _, name := range []string{"water", "roads", "labels"} {
			require.NoError(t, tile.AddLayer(tile.CreateLayer(name)))
		}
		assert.Equal(t, []string{"water", "roads", "labels"}, tile.LayerNames())
		assert.Equal(t, uint32(4096), tile.Extent())
	})

	t.Run("AddedLayerIsStale", func(t *testing.T) {
		tile := NewTile(4096)
		l := tile.CreateLayer("a")
		require.NoError(t, tile.AddLayer(l))
		requireStale(t, func() { l.Name() })
		requireStale(t, func() { _ = tile.AddLayer(l) })
		requireStale(t, func() { _ = NewTile(4096).AddLayer(l) })
	})
}

func buildSampleTile(t *testing.T, opts ...Option) *Tile {
	t.Helper()
	tile := NewTile(4096, opts...)

	roads := tile.CreateLayer("roads")
	for i := 0; i < 3; i++ {
		f := roads.IntoFeature(EncodedGeometry{Type: Linestring, Data: []uint32{9, 4, 4, 18, 0, 16, 16, 0}})
		require.NoError(t, f.SetID(uint64(i+1)<<40))
		f.AddTagString("highway", "primary")
		f.AddTagUint("lanes", uint64(i+2))
		f.AddTagInt("layer", -1)
		f.AddTagSint("offset", -300)
		roads = f.IntoLayer()
	}
	require.NoError(t, tile.AddLayer(roads))

	pois := tile.CreateLayer("pois")
	f := pois.IntoFeature(point(100, 200))
	f.AddTagDouble("rank", math.Pi)
	f.AddTagFloat("rank", 0.5)
	f.AddTagBool("open", true)
	f.AddTagBool("closed", false)
	f.AddTagString("name", "Café ☕")
	pois = f.IntoLayer()
	pois = pois.IntoFeature(EncodedGeometry{Type: Polygon}).IntoLayer()
	require.NoError(t, tile.AddLayer(pois))

	require.NoError(t, tile.AddLayer(tile.CreateLayer("empty")))
	return tile
}

func TestTile_Encode(t *testing.T) {
	t.Run("SizeMatchesBytes", func(t *testing.T) {
		tile := buildSampleTile(t)
		data, err := tile.ToBytes()
		require.NoError(t, err)
		assert.Equal(t, tile.Size(), len(data))
		assert.Equal(t, len(data), cap(data))
	})

	t.Run("WriteToMatchesToBytes", func(t *testing.T) {
		tile := buildSampleTile(t)
		data, err := tile.ToBytes()
		require.NoError(t, err)

		var buf bytes.Buffer
		n, err := tile.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), n)
		assert.Equal(t, data, buf.Bytes())
	})

	t.Run("Golden", func(t *testing.T) {
		tile := NewTile(4096)
		l := tile.CreateLayer("a")
		l = l.IntoFeature(point(25, 17)).IntoLayer()
		require.NoError(t, tile.AddLayer(l))

		data, err := tile.ToBytes()
		require.NoError(t, err)
		want := []byte{
			0x1a, 0x11, // layers, 17 bytes
			0x0a, 0x01, 'a', // name
			0x12, 0x07, // features, 7 bytes
			0x18, 0x01, // type POINT
			0x22, 0x03, 0x09, 0x32, 0x22, // geometry
			0x28, 0x80, 0x20, // extent 4096
			0x78, 0x02, // version 2
		}
		assert.Equal(t, want, data)
	})

	t.Run("Decoded", func(t *testing.T) {
		tile := buildSampleTile(t)
		data, err := tile.ToBytes()
		require.NoError(t, err)

		layers := decodeTile(t, data)
		require.Len(t, layers, 3)

		roads := layers[0]
		assert.Equal(t, "roads", roads.name)
		assert.Equal(t, uint64(2), roads.version)
		assert.Equal(t, uint64(4096), roads.extent)
		assert.Equal(t, []string{"highway", "lanes", "layer", "offset"}, roads.keys)
		assert.Equal(t, []Value{
			StringValue("primary"), UintValue(2), IntValue(-1), SintValue(-300),
			UintValue(3), UintValue(4),
		}, roads.values)
		require.Len(t, roads.features, 3)
		for i, f := range roads.features {
			assert.True(t, f.hasID)
			assert.Equal(t, uint64(i+1)<<40, f.id)
			assert.Equal(t, uint64(2), f.geomType)
			assert.Equal(t, []uint32{9, 4, 4, 18, 0, 16, 16, 0}, f.geometry)
		}
		assert.Equal(t, []uint32{0, 0, 1, 5, 2, 2, 3, 3}, roads.features[2].tags)

		pois := layers[1]
		assert.Equal(t, []string{"rank", "open", "closed", "name"}, pois.keys)
		assert.Equal(t, []Value{
			DoubleValue(math.Pi), FloatValue(0.5), BoolValue(true), BoolValue(false), StringValue("Café ☕"),
		}, pois.values)
		require.Len(t, pois.features, 2)
		assert.False(t, pois.features[0].hasID)
		assert.Equal(t, []uint32{0, 0, 0, 1, 1, 2, 2, 3, 3, 4}, pois.features[0].tags)
		assert.Equal(t, uint64(3), pois.features[1].geomType)
		assert.Empty(t, pois.features[1].tags)
		assert.Empty(t, pois.features[1].geometry)

		empty := layers[2]
		assert.Equal(t, "empty", empty.name)
		assert.Empty(t, empty.features)
		assert.Equal(t, uint64(2), empty.version)
	})

	t.Run("EmptyTile", func(t *testing.T) {
		tile := NewTile(4096)
		assert.Equal(t, 0, tile.Size())
		data, err := tile.ToBytes()
		require.NoError(t, err)
		assert.Empty(t, data)

		var buf bytes.Buffer
		n, err := tile.WriteTo(&buf)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("SizeIsRecomputed", func(t *testing.T) {
		tile := NewTile(4096)
		l := tile.CreateLayer("a")
		require.NoError(t, tile.AddLayer(l))
		before := tile.Size()
		require.NoError(t, tile.AddLayer(tile.CreateLayer("b")))
		assert.Greater(t, tile.Size(), before)
	})
}

type failingWriter struct {
	err   error
	after int // bytes accepted before failing
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) <= w.after {
		w.n += len(p)
		return len(p), nil
	}
	return 0, w.err
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestTile_WriteToErrors(t *testing.T) {
	t.Run("SinkFailure", func(t *testing.T) {
		tile := buildSampleTile(t)
		sinkErr := errors.New("disk full")
		w := &failingWriter{err: sinkErr, after: 0}

		_, err := tile.WriteTo(w)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEncode)
		assert.ErrorIs(t, err, sinkErr)

		var ee *EncodeError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, sinkErr, errors.Unwrap(ee))
		assert.Contains(t, ee.Op, "roads")
	})

	t.Run("FailureOnLaterLayer", func(t *testing.T) {
		tile := buildSampleTile(t)
		data, err := tile.ToBytes()
		require.NoError(t, err)
		first := fieldSize(tileLayers, layerSize(tile.layers[0]))

		w := &failingWriter{err: io.ErrClosedPipe, after: first}
		n, err := tile.WriteTo(w)
		require.ErrorIs(t, err, io.ErrClosedPipe)
		assert.Equal(t, int64(first), n)
		assert.Less(t, n, int64(len(data)))
	})

	t.Run("ShortWrite", func(t *testing.T) {
		tile := buildSampleTile(t)
		_, err := tile.WriteTo(shortWriter{})
		require.ErrorIs(t, err, io.ErrShortWrite)
		assert.ErrorIs(t, err, ErrEncode)
	})

	t.Run("StateSurvivesFailure", func(t *testing.T) {
		tile := buildSampleTile(t)
		_, err := tile.WriteTo(&failingWriter{err: io.ErrUnexpectedEOF})
		require.Error(t, err)

		data, err := tile.ToBytes()
		require.NoError(t, err)
		assert.Len(t, decodeTile(t, data), 3)
	})
}

func requireStale(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, ErrStaleHandle)
	}()
	fn()
}
