package mvt

import (
	"context"
	"io"
	"time"
)

// ContentType is the media type of an encoded tile.
const ContentType = "application/vnd.mapbox-vector-tile"

// Tile represents a rectangular region of a map at a particular zoom level.
// Each tile can contain any number of uniquely named layers.
//
// A Tile is not safe for concurrent use. Independent tiles share no state
// and may be built on separate goroutines.
//
//	tile := mvt.NewTile(4096)
//	layer := tile.CreateLayer("roads")
//	// ... add features ...
//	if err := tile.AddLayer(layer); err != nil {
//	    return err
//	}
//	data, err := tile.ToBytes()
type Tile struct {
	extent uint32
	layers []*Layer
	opts   *options
}

// NewTile creates an empty tile.
//
// extent is the size of the tile in screen coordinates, commonly 4096.
func NewTile(extent uint32, optFns ...Option) *Tile {
	return &Tile{
		extent: extent,
		opts:   applyOptions(optFns),
	}
}

// Extent returns the extent in screen coordinates.
func (t *Tile) Extent() uint32 { return t.extent }

// NumLayers returns the number of layers added to the tile.
func (t *Tile) NumLayers() int { return len(t.layers) }

// LayerNames returns the layer names in the order they were added.
func (t *Tile) LayerNames() []string {
	names := make([]string, len(t.layers))
	for i, l := range t.layers {
		names[i] = l.name
	}
	return names
}

// CreateLayer creates a new detached layer using the tile's extent.
// The tile is not modified; use AddLayer to add the finished layer.
func (t *Tile) CreateLayer(name string) *Layer {
	return newLayer(name, t.extent, t.opts)
}

// AddLayer adds a layer to the tile, which takes ownership of it.
//
// It returns ErrDuplicateName if the tile already has a layer with the same
// name. In that case the tile is unchanged and the caller keeps the layer.
func (t *Tile) AddLayer(l *Layer) error {
	l.check("AddLayer")
	for _, existing := range t.layers {
		if existing.name == l.name {
			err := duplicateName(l.name)
			t.opts.logger.LogAddLayer(context.Background(), l.name, len(l.features), err)
			t.opts.metricsCollector.RecordAddLayer(err)
			return err
		}
	}
	l.state = stateInTile
	t.layers = append(t.layers, l)
	t.opts.logger.LogAddLayer(context.Background(), l.name, len(l.features), nil)
	t.opts.metricsCollector.RecordAddLayer(nil)
	return nil
}

// Size returns the exact encoded size of the tile in bytes.
//
// The size is recomputed on every call and costs O(total size of the
// tile's contents).
func (t *Tile) Size() int {
	return tileSize(t.layers)
}

// WriteTo writes the encoded tile to w, one layer message at a time.
// It implements io.WriterTo. Failures are reported as *EncodeError.
func (t *Tile) WriteTo(w io.Writer) (int64, error) {
	start := time.Now()
	var (
		total int64
		buf   []byte
		err   error
	)
	for _, l := range t.layers {
		buf, err = appendLayerField(buf[:0], l)
		if err != nil {
			break
		}
		var n int
		n, err = w.Write(buf)
		total += int64(n)
		if err == nil && n < len(buf) {
			err = io.ErrShortWrite
		}
		if err != nil {
			err = encodeError("write layer "+quote(l.name), err)
			break
		}
	}
	t.finishEncode(int(total), start, err)
	return total, err
}

// ToBytes encodes the tile into a buffer of exactly Size bytes.
func (t *Tile) ToBytes() ([]byte, error) {
	start := time.Now()
	size := t.Size()
	buf := make([]byte, 0, size)
	var err error
	for _, l := range t.layers {
		if buf, err = appendLayerField(buf, l); err != nil {
			break
		}
	}
	if err == nil && len(buf) != size {
		err = encodeError("encode tile", sizeMismatch(len(buf), size))
	}
	if err != nil {
		t.finishEncode(0, start, err)
		return nil, err
	}
	t.finishEncode(len(buf), start, nil)
	return buf, nil
}

func (t *Tile) finishEncode(n int, start time.Time, err error) {
	t.opts.logger.LogEncode(context.Background(), len(t.layers), n, err)
	t.opts.metricsCollector.RecordEncode(n, time.Since(start), err)
}
