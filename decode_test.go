package mvt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// Minimal vector tile decoder used to check encoder output.

type decodedFeature struct {
	id       uint64
	hasID    bool
	geomType uint64
	tags     []uint32
	geometry []uint32
}

type decodedLayer struct {
	version  uint64
	name     string
	extent   uint64
	keys     []string
	values   []Value
	features []decodedFeature
}

func eachField(t *testing.T, b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) int) {
	t.Helper()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0, "malformed tag")
		b = b[n:]
		n = fn(num, typ, b)
		require.GreaterOrEqual(t, n, 0, "malformed field %d", num)
		b = b[n:]
	}
}

func consumeBytes(t *testing.T, typ protowire.Type, b []byte) ([]byte, int) {
	t.Helper()
	require.Equal(t, protowire.BytesType, typ)
	return protowire.ConsumeBytes(b)
}

func consumeVarint(t *testing.T, typ protowire.Type, b []byte) (uint64, int) {
	t.Helper()
	require.Equal(t, protowire.VarintType, typ)
	return protowire.ConsumeVarint(b)
}

func decodePacked(t *testing.T, b []byte) []uint32 {
	t.Helper()
	var out []uint32
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		require.GreaterOrEqual(t, n, 0)
		require.LessOrEqual(t, v, uint64(math.MaxUint32))
		out = append(out, uint32(v))
		b = b[n:]
	}
	return out
}

func decodeTile(t *testing.T, b []byte) []decodedLayer {
	t.Helper()
	var layers []decodedLayer
	eachField(t, b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		require.Equal(t, tileLayers, num)
		body, n := consumeBytes(t, typ, b)
		if n >= 0 {
			layers = append(layers, decodeLayer(t, body))
		}
		return n
	})
	return layers
}

func decodeLayer(t *testing.T, b []byte) decodedLayer {
	t.Helper()
	var l decodedLayer
	eachField(t, b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case layerVersion:
			v, n := consumeVarint(t, typ, b)
			l.version = v
			return n
		case layerName:
			v, n := consumeBytes(t, typ, b)
			l.name = string(v)
			return n
		case layerExtent:
			v, n := consumeVarint(t, typ, b)
			l.extent = v
			return n
		case layerKeys:
			v, n := consumeBytes(t, typ, b)
			l.keys = append(l.keys, string(v))
			return n
		case layerValues:
			v, n := consumeBytes(t, typ, b)
			if n >= 0 {
				l.values = append(l.values, decodeValue(t, v))
			}
			return n
		case layerFeatures:
			v, n := consumeBytes(t, typ, b)
			if n >= 0 {
				l.features = append(l.features, decodeFeature(t, v))
			}
			return n
		}
		t.Fatalf("unexpected layer field %d", num)
		return -1
	})
	return l
}

func decodeFeature(t *testing.T, b []byte) decodedFeature {
	t.Helper()
	var f decodedFeature
	eachField(t, b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case featureID:
			v, n := consumeVarint(t, typ, b)
			f.id, f.hasID = v, true
			return n
		case featureType:
			v, n := consumeVarint(t, typ, b)
			f.geomType = v
			return n
		case featureTags:
			v, n := consumeBytes(t, typ, b)
			f.tags = decodePacked(t, v)
			return n
		case featureGeometry:
			v, n := consumeBytes(t, typ, b)
			f.geometry = decodePacked(t, v)
			return n
		}
		t.Fatalf("unexpected feature field %d", num)
		return -1
	})
	return f
}

func decodeValue(t *testing.T, b []byte) Value {
	t.Helper()
	var v Value
	fields := 0
	eachField(t, b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		fields++
		switch num {
		case valueString:
			s, n := consumeBytes(t, typ, b)
			v = StringValue(string(s))
			return n
		case valueFloat:
			require.Equal(t, protowire.Fixed32Type, typ)
			x, n := protowire.ConsumeFixed32(b)
			v = FloatValue(math.Float32frombits(x))
			return n
		case valueDouble:
			require.Equal(t, protowire.Fixed64Type, typ)
			x, n := protowire.ConsumeFixed64(b)
			v = DoubleValue(math.Float64frombits(x))
			return n
		case valueInt:
			x, n := consumeVarint(t, typ, b)
			v = IntValue(int64(x))
			return n
		case valueUint:
			x, n := consumeVarint(t, typ, b)
			v = UintValue(x)
			return n
		case valueSint:
			x, n := consumeVarint(t, typ, b)
			v = SintValue(protowire.DecodeZigZag(x))
			return n
		case valueBool:
			x, n := consumeVarint(t, typ, b)
			v = BoolValue(protowire.DecodeBool(x))
			return n
		}
		t.Fatalf("unexpected value field %d", num)
		return -1
	})
	require.Equal(t, 1, fields, "value must set exactly one field")
	return v
}
