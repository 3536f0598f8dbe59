package mvt

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the vector tile schema (vector_tile.proto, version 2.1).
const (
	tileLayers protowire.Number = 3

	layerName     protowire.Number = 1
	layerFeatures protowire.Number = 2
	layerKeys     protowire.Number = 3
	layerValues   protowire.Number = 4
	layerExtent   protowire.Number = 5
	layerVersion  protowire.Number = 15

	featureID       protowire.Number = 1
	featureTags     protowire.Number = 2
	featureType     protowire.Number = 3
	featureGeometry protowire.Number = 4

	valueString protowire.Number = 1
	valueFloat  protowire.Number = 2
	valueDouble protowire.Number = 3
	valueInt    protowire.Number = 4
	valueUint   protowire.Number = 5
	valueSint   protowire.Number = 6
	valueBool   protowire.Number = 7
)

type sizeMismatchError struct {
	encoded, computed int
}

func (e *sizeMismatchError) Error() string {
	return fmt.Sprintf("encoded %d bytes, computed size %d", e.encoded, e.computed)
}

func sizeMismatch(encoded, computed int) error {
	return &sizeMismatchError{encoded: encoded, computed: computed}
}

func quote(s string) string { return strconv.Quote(s) }

func packedSize(vs []uint32) int {
	n := 0
	for _, v := range vs {
		n += protowire.SizeVarint(uint64(v))
	}
	return n
}

// fieldSize is the size of a length-delimited field with a body of n bytes.
func fieldSize(num protowire.Number, n int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(n)
}

func tileSize(layers []*Layer) int {
	n := 0
	for _, l := range layers {
		n += fieldSize(tileLayers, layerSize(l))
	}
	return n
}

func layerSize(l *Layer) int {
	n := fieldSize(layerName, len(l.name))
	for i := range l.features {
		n += fieldSize(layerFeatures, featureSize(&l.features[i]))
	}
	for _, k := range l.keys {
		n += fieldSize(layerKeys, len(k))
	}
	for _, v := range l.values {
		n += fieldSize(layerValues, valueSize(v))
	}
	n += protowire.SizeTag(layerExtent) + protowire.SizeVarint(uint64(l.extent))
	n += protowire.SizeTag(layerVersion) + protowire.SizeVarint(Version)
	return n
}

func featureSize(f *featureRecord) int {
	n := 0
	if f.hasID {
		n += protowire.SizeTag(featureID) + protowire.SizeVarint(f.id)
	}
	if len(f.tags) > 0 {
		n += fieldSize(featureTags, packedSize(f.tags))
	}
	n += protowire.SizeTag(featureType) + protowire.SizeVarint(f.geomType.wireType())
	if len(f.geometry) > 0 {
		n += fieldSize(featureGeometry, packedSize(f.geometry))
	}
	return n
}

func valueSize(v Value) int {
	switch v.kind {
	case KindString:
		return fieldSize(valueString, len(v.str))
	case KindFloat:
		return protowire.SizeTag(valueFloat) + protowire.SizeFixed32()
	case KindDouble:
		return protowire.SizeTag(valueDouble) + protowire.SizeFixed64()
	case KindInt:
		return protowire.SizeTag(valueInt) + protowire.SizeVarint(v.bits)
	case KindUint:
		return protowire.SizeTag(valueUint) + protowire.SizeVarint(v.bits)
	case KindSint:
		return protowire.SizeTag(valueSint) + protowire.SizeVarint(protowire.EncodeZigZag(int64(v.bits)))
	case KindBool:
		return protowire.SizeTag(valueBool) + protowire.SizeVarint(v.bits)
	}
	return 0
}

// appendLayerField appends the Tile.layers field holding l. The declared
// length of every nested message is checked against the bytes actually
// appended.
func appendLayerField(b []byte, l *Layer) ([]byte, error) {
	size := layerSize(l)
	b = protowire.AppendTag(b, tileLayers, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size))
	start := len(b)

	b = protowire.AppendTag(b, layerName, protowire.BytesType)
	b = protowire.AppendString(b, l.name)
	for i := range l.features {
		var err error
		if b, err = appendFeatureField(b, &l.features[i]); err != nil {
			return b, encodeError(fmt.Sprintf("layer %s: feature %d", quote(l.name), i), err)
		}
	}
	for _, k := range l.keys {
		b = protowire.AppendTag(b, layerKeys, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}
	for _, v := range l.values {
		b = protowire.AppendTag(b, layerValues, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(valueSize(v)))
		b = appendValue(b, v)
	}
	b = protowire.AppendTag(b, layerExtent, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(l.extent))
	b = protowire.AppendTag(b, layerVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)

	if got := len(b) - start; got != size {
		return b, encodeError("layer "+quote(l.name), sizeMismatch(got, size))
	}
	return b, nil
}

func appendFeatureField(b []byte, f *featureRecord) ([]byte, error) {
	size := featureSize(f)
	b = protowire.AppendTag(b, layerFeatures, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size))
	start := len(b)

	if f.hasID {
		b = protowire.AppendTag(b, featureID, protowire.VarintType)
		b = protowire.AppendVarint(b, f.id)
	}
	if len(f.tags) > 0 {
		b = appendPacked(b, featureTags, f.tags)
	}
	b = protowire.AppendTag(b, featureType, protowire.VarintType)
	b = protowire.AppendVarint(b, f.geomType.wireType())
	if len(f.geometry) > 0 {
		b = appendPacked(b, featureGeometry, f.geometry)
	}

	if got := len(b) - start; got != size {
		return b, sizeMismatch(got, size)
	}
	return b, nil
}

func appendPacked(b []byte, num protowire.Number, vs []uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(packedSize(vs)))
	for _, v := range vs {
		b = protowire.AppendVarint(b, uint64(v))
	}
	return b
}

func appendValue(b []byte, v Value) []byte {
	switch v.kind {
	case KindString:
		b = protowire.AppendTag(b, valueString, protowire.BytesType)
		b = protowire.AppendString(b, v.str)
	case KindFloat:
		b = protowire.AppendTag(b, valueFloat, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(v.f32))
	case KindDouble:
		b = protowire.AppendTag(b, valueDouble, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.f64))
	case KindInt:
		b = protowire.AppendTag(b, valueInt, protowire.VarintType)
		b = protowire.AppendVarint(b, v.bits)
	case KindUint:
		b = protowire.AppendTag(b, valueUint, protowire.VarintType)
		b = protowire.AppendVarint(b, v.bits)
	case KindSint:
		b = protowire.AppendTag(b, valueSint, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.bits)))
	case KindBool:
		b = protowire.AppendTag(b, valueBool, protowire.VarintType)
		b = protowire.AppendVarint(b, v.bits)
	}
	return b
}
