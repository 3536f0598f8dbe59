package mvt

import (
	"context"
	"fmt"
)

// Feature contains map geometry with related metadata.
//
// A Feature is obtained with Layer.IntoFeature. After optionally setting an
// ID and adding tags, Feature.IntoLayer commits it and returns the layer.
// There is no way to abandon a feature and keep the layer: dropping an open
// Feature drops its layer too, together with any keys and values already
// added to the layer's dictionaries.
//
//	layer := tile.CreateLayer("roads")
//	feature := layer.IntoFeature(mvt.EncodedGeometry{Type: mvt.Linestring, Data: cmds})
//	feature.AddTagString("name", "Main St")
//	layer = feature.IntoLayer()
type Feature struct {
	layer *Layer
	rec   featureRecord
}

func (f *Feature) check(op string) {
	if f == nil || f.layer == nil {
		stale("Feature", op)
	}
}

// IntoLayer completes the feature, returning ownership of the layer.
// The Feature must not be used afterwards.
func (f *Feature) IntoLayer() *Layer {
	f.check("IntoLayer")
	l := f.layer
	f.layer = nil
	l.commit(f.rec)
	return l
}

// SetID sets the feature ID.
//
// It returns ErrDuplicateID if a feature already committed to the layer has
// the same ID; the feature is left unchanged and remains usable.
func (f *Feature) SetID(id uint64) error {
	f.check("SetID")
	if f.layer.ids.Contains(id) {
		f.layer.log.LogDuplicateID(context.Background(), id)
		return duplicateID(id)
	}
	f.rec.id = id
	f.rec.hasID = true
	return nil
}

// ID returns the feature ID and whether one was set.
func (f *Feature) ID() (uint64, bool) {
	f.check("ID")
	return f.rec.id, f.rec.hasID
}

// GeomType returns the geometry type given to Layer.IntoFeature.
func (f *Feature) GeomType() GeomType {
	f.check("GeomType")
	return f.rec.geomType
}

// NumTags returns the number of key/value pairs added so far.
func (f *Feature) NumTags() int {
	f.check("NumTags")
	return len(f.rec.tags) / 2
}

// AddTagString adds a tag of string type.
func (f *Feature) AddTagString(key, val string) { f.AddTag(key, StringValue(val)) }

// AddTagDouble adds a tag of double type.
func (f *Feature) AddTagDouble(key string, val float64) { f.AddTag(key, DoubleValue(val)) }

// AddTagFloat adds a tag of float type.
func (f *Feature) AddTagFloat(key string, val float32) { f.AddTag(key, FloatValue(val)) }

// AddTagInt adds a tag of int type.
func (f *Feature) AddTagInt(key string, val int64) { f.AddTag(key, IntValue(val)) }

// AddTagUint adds a tag of uint type.
func (f *Feature) AddTagUint(key string, val uint64) { f.AddTag(key, UintValue(val)) }

// AddTagSint adds a tag of sint (zigzag encoded) type.
func (f *Feature) AddTagSint(key string, val int64) { f.AddTag(key, SintValue(val)) }

// AddTagBool adds a tag of bool type.
func (f *Feature) AddTagBool(key string, val bool) { f.AddTag(key, BoolValue(val)) }

// AddTag adds a key/value pair. Each call appends a new pair, even when the
// key was already used on this feature.
func (f *Feature) AddTag(key string, v Value) {
	f.check("AddTag")
	if v.kind == 0 {
		panic(fmt.Sprintf("mvt: Feature.AddTag(%q): zero Value", key))
	}
	kidx := f.layer.keyPos(key)
	vidx := f.layer.valPos(v)
	f.rec.tags = append(f.rec.tags, kidx, vidx)
}
