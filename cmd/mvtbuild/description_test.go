package main

import (
	"strings"
	"testing"

	"github.com/multun/mvt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
extent: 512
layers:
  - name: roads
    features:
      - type: linestring
        id: 7
        geometry: [9, 4, 4, 18, 0, 16, 16, 0]
        tags:
          highway: primary
          lanes: 2
          layer: -1
          oneway: true
          width: 3.5
          ratio: {float: 0.25}
          rank: {int: 4}
          code: "12"
  - name: pois
    features:
      - type: POINT
        geometry: [9, 50, 34]
      - type: polygon
        tags:
`

func TestReadDescription(t *testing.T) {
	desc, err := ReadDescription(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, uint32(512), desc.Extent)
	require.Len(t, desc.Layers, 2)
	roads := desc.Layers[0]
	require.Len(t, roads.Features, 1)
	require.NotNil(t, roads.Features[0].ID)
	assert.Equal(t, uint64(7), *roads.Features[0].ID)
	assert.Nil(t, desc.Layers[1].Features[0].ID)

	tags, err := parseTags(&roads.Features[0].Tags)
	require.NoError(t, err)
	want := []tag{
		{"highway", mvt.StringValue("primary")},
		{"lanes", mvt.UintValue(2)},
		{"layer", mvt.SintValue(-1)},
		{"oneway", mvt.BoolValue(true)},
		{"width", mvt.DoubleValue(3.5)},
		{"ratio", mvt.FloatValue(0.25)},
		{"rank", mvt.IntValue(4)},
		{"code", mvt.StringValue("12")},
	}
	assert.Equal(t, want, tags)
}

func TestDescription_Tile(t *testing.T) {
	desc, err := ReadDescription(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	tile, err := desc.Tile(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(512), tile.Extent())
	assert.Equal(t, []string{"roads", "pois"}, tile.LayerNames())

	tile, err = desc.Tile(4096)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), tile.Extent())

	data, err := tile.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, tile.Size(), len(data))

	empty, err := (&Description{}).Tile(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultExtent), empty.Extent())
}

func TestDescription_Errors(t *testing.T) {
	tests := map[string]string{
		"UnknownField": "layers:\n  - name: a\n    color: red\n",
		"BadType":      "layers:\n  - name: a\n    features:\n      - type: circle\n",
		"DuplicateID": `layers:
  - name: a
    features:
      - {type: point, id: 1}
      - {type: point, id: 1}
`,
		"DuplicateLayer": "layers:\n  - name: a\n  - name: a\n",
		"BadKind":        "layers:\n  - name: a\n    features:\n      - type: point\n        tags: {x: {decimal: 1}}\n",
		"BadTypedValue":  "layers:\n  - name: a\n    features:\n      - type: point\n        tags: {x: {uint: -1}}\n",
		"ListValue":      "layers:\n  - name: a\n    features:\n      - type: point\n        tags: {x: [1, 2]}\n",
		"TagsNotMapping": "layers:\n  - name: a\n    features:\n      - type: point\n        tags: [a]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			desc, err := ReadDescription(strings.NewReader(doc))
			if err == nil {
				_, err = desc.Tile(0)
			}
			assert.Error(t, err)
		})
	}
}

func TestReadDescription_Empty(t *testing.T) {
	desc, err := ReadDescription(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, desc.Layers)
}
