package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/multun/mvt"
	"gopkg.in/yaml.v3"
)

// Description is the YAML input of mvtbuild: layers of features with
// pre-encoded geometry command streams.
//
//	extent: 4096
//	layers:
//	  - name: roads
//	    features:
//	      - type: linestring
//	        id: 7
//	        geometry: [9, 4, 4, 18, 0, 16, 16, 0]
//	        tags:
//	          highway: primary
//	          lanes: 2
//	          width: {float: 3.5}
type Description struct {
	Extent uint32             `yaml:"extent"`
	Layers []LayerDescription `yaml:"layers"`
}

// LayerDescription describes one layer.
type LayerDescription struct {
	Name     string               `yaml:"name"`
	Features []FeatureDescription `yaml:"features"`
}

// FeatureDescription describes one feature. Tags keep their document order.
type FeatureDescription struct {
	Type     string    `yaml:"type"`
	ID       *uint64   `yaml:"id"`
	Geometry []uint32  `yaml:"geometry"`
	Tags     yaml.Node `yaml:"tags"`
}

// DefaultExtent is used when neither the description nor the command line
// sets one.
const DefaultExtent = 4096

// ReadDescription decodes a YAML description.
func ReadDescription(r io.Reader) (*Description, error) {
	var d Description
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return &d, nil
		}
		return nil, fmt.Errorf("decode description: %w", err)
	}
	return &d, nil
}

// Tile builds the described tile. A non-zero extent overrides the
// description's.
func (d *Description) Tile(extent uint32, opts ...mvt.Option) (*mvt.Tile, error) {
	if extent == 0 {
		extent = d.Extent
	}
	if extent == 0 {
		extent = DefaultExtent
	}
	tile := mvt.NewTile(extent, opts...)
	for i, ld := range d.Layers {
		layer, err := ld.build(tile)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%q): %w", i, ld.Name, err)
		}
		if err := tile.AddLayer(layer); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return tile, nil
}

func (ld *LayerDescription) build(tile *mvt.Tile) (*mvt.Layer, error) {
	layer := tile.CreateLayer(ld.Name)
	for i, fd := range ld.Features {
		gt, err := mvt.ParseGeomType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		tags, err := parseTags(&fd.Tags)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		f := layer.IntoFeature(mvt.EncodedGeometry{Type: gt, Data: fd.Geometry})
		if fd.ID != nil {
			if err := f.SetID(*fd.ID); err != nil {
				f.IntoLayer()
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		}
		for _, tag := range tags {
			f.AddTag(tag.key, tag.value)
		}
		layer = f.IntoLayer()
	}
	return layer, nil
}

type tag struct {
	key   string
	value mvt.Value
}

func parseTags(n *yaml.Node) ([]tag, error) {
	if n.Kind == 0 || n.ShortTag() == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: tags must be a mapping", n.Line)
	}
	tags := make([]tag, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		value, err := parseValue(v)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", k.Value, err)
		}
		tags = append(tags, tag{key: k.Value, value: value})
	}
	return tags, nil
}

// parseValue maps a YAML node to a tag value. Plain scalars are typed by
// their YAML tag: strings, bools, doubles, non-negative integers as uint and
// negative integers as sint. A single-entry mapping such as {float: 0.5}
// selects the kind explicitly.
func parseValue(n *yaml.Node) (mvt.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return parseScalar(n)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return mvt.Value{}, fmt.Errorf("line %d: typed value needs exactly one kind", n.Line)
		}
		return parseTyped(n.Content[0].Value, n.Content[1])
	default:
		return mvt.Value{}, fmt.Errorf("line %d: unsupported value", n.Line)
	}
}

func parseScalar(n *yaml.Node) (mvt.Value, error) {
	switch n.ShortTag() {
	case "!!str":
		return mvt.StringValue(n.Value), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return mvt.Value{}, err
		}
		return mvt.BoolValue(b), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return mvt.Value{}, err
		}
		return mvt.DoubleValue(f), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			if i < 0 {
				return mvt.SintValue(i), nil
			}
			return mvt.UintValue(uint64(i)), nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return mvt.Value{}, err
		}
		return mvt.UintValue(u), nil
	default:
		return mvt.Value{}, fmt.Errorf("line %d: unsupported scalar %s", n.Line, n.ShortTag())
	}
}

func parseTyped(kind string, n *yaml.Node) (mvt.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return mvt.Value{}, fmt.Errorf("line %d: %s value must be a scalar", n.Line, kind)
	}
	s := n.Value
	switch kind {
	case "string":
		return mvt.StringValue(s), nil
	case "float":
		f, err := strconv.ParseFloat(s, 32)
		return mvt.FloatValue(float32(f)), err
	case "double":
		f, err := strconv.ParseFloat(s, 64)
		return mvt.DoubleValue(f), err
	case "int":
		i, err := strconv.ParseInt(s, 10, 64)
		return mvt.IntValue(i), err
	case "sint":
		i, err := strconv.ParseInt(s, 10, 64)
		return mvt.SintValue(i), err
	case "uint":
		u, err := strconv.ParseUint(s, 10, 64)
		return mvt.UintValue(u), err
	case "bool":
		b, err := strconv.ParseBool(s)
		return mvt.BoolValue(b), err
	default:
		return mvt.Value{}, fmt.Errorf("line %d: unknown value kind %q", n.Line, kind)
	}
}
