package mvt

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Version is the vector tile format version written into every layer.
const Version = 2

type handleState uint8

const (
	stateDetached handleState = iota
	stateInFeature
	stateInTile
)

// featureRecord is a committed feature.
type featureRecord struct {
	id       uint64
	hasID    bool
	geomType GeomType
	geometry []uint32
	tags     []uint32
}

// Layer is a set of related features in a tile.
//
// A Layer is obtained from Tile.CreateLayer and is detached until it is
// passed to Tile.AddLayer. While a Feature built with IntoFeature is open,
// or after the layer was added to a tile, the handle is stale and every
// method panics.
//
// Keys and values are kept in append-only dictionaries: the index assigned
// to a key or value never changes.
type Layer struct {
	name   string
	extent uint32

	keys       []string
	keyIndex   map[string]uint32
	values     []Value
	valueIndex map[Value]uint32

	features []featureRecord
	ids      *roaring64.Bitmap // ids of committed features

	state handleState
	opts  *options
	log   *Logger
}

func newLayer(name string, extent uint32, opts *options) *Layer {
	return &Layer{
		name:       name,
		extent:     extent,
		keyIndex:   make(map[string]uint32),
		valueIndex: make(map[Value]uint32),
		ids:        roaring64.New(),
		opts:       opts,
		log:        opts.logger.WithLayer(name),
	}
}

func (l *Layer) check(op string) {
	if l == nil || l.state != stateDetached {
		stale("Layer", op)
	}
}

// Name returns the layer name.
func (l *Layer) Name() string {
	l.check("Name")
	return l.name
}

// Version returns the format version, always Version.
func (l *Layer) Version() uint32 {
	l.check("Version")
	return Version
}

// Extent returns the layer extent, copied from the tile that created it.
func (l *Layer) Extent() uint32 {
	l.check("Extent")
	return l.extent
}

// NumFeatures returns the number of committed features.
func (l *Layer) NumFeatures() int {
	l.check("NumFeatures")
	return len(l.features)
}

// Keys returns a copy of the key dictionary in index order.
func (l *Layer) Keys() []string {
	l.check("Keys")
	return slices.Clone(l.keys)
}

// Values returns a copy of the value dictionary in index order.
func (l *Layer) Values() []Value {
	l.check("Values")
	return slices.Clone(l.values)
}

// IntoFeature starts a new feature with the given geometry. The returned
// Feature owns the layer until Feature.IntoLayer hands it back; the layer
// handle must not be used in the meantime.
//
// The command stream is copied and stored without validation.
func (l *Layer) IntoFeature(g Geometry) *Feature {
	l.check("IntoFeature")
	gt := g.GeomType()
	gt.wireType() // panics on an unknown type
	l.state = stateInFeature
	return &Feature{
		layer: l,
		rec: featureRecord{
			geomType: gt,
			geometry: slices.Clone(g.Commands()),
		},
	}
}

// keyPos returns the dictionary index of key, appending it if absent.
func (l *Layer) keyPos(key string) uint32 {
	if i, ok := l.keyIndex[key]; ok {
		return i
	}
	i := uint32(len(l.keys))
	l.keys = append(l.keys, key)
	l.keyIndex[key] = i
	return i
}

// valPos returns the dictionary index of v, appending it if absent.
// NaN payloads never match and always append.
func (l *Layer) valPos(v Value) uint32 {
	if i, ok := l.valueIndex[v]; ok {
		return i
	}
	i := uint32(len(l.values))
	l.values = append(l.values, v)
	l.valueIndex[v] = i
	return i
}

// commit appends rec and makes the layer detached again.
func (l *Layer) commit(rec featureRecord) {
	l.features = append(l.features, rec)
	if rec.hasID {
		l.ids.Add(rec.id)
	}
	l.state = stateDetached
	l.opts.metricsCollector.RecordFeature(len(rec.tags) / 2)
}
