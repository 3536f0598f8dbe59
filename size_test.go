package mvt_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/multun/mvt/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTile_SizeRandom(t *testing.T) {
	shapes := []testutil.TileShape{
		{Layers: 1, Features: 1, Tags: 1},
		{Layers: 3, Features: 20, Tags: 5, Cardinality: 4},
		{Layers: 2, Features: 200, Tags: 8, Cardinality: 300},
		{Layers: 4, Features: 10, Tags: 6, MinStringLen: 130},
		{Layers: 2, Features: 40, Tags: 10, MinStringLen: 20000, Extent: 512},
	}
	for i, shape := range shapes {
		for seed := int64(1); seed <= 10; seed++ {
			t.Run(fmt.Sprintf("shape%d/seed%d", i, seed), func(t *testing.T) {
				tile := testutil.RandomTile(testutil.NewRNG(seed), shape)

				data, err := tile.ToBytes()
				require.NoError(t, err)
				assert.Equal(t, tile.Size(), len(data))

				var buf bytes.Buffer
				n, err := tile.WriteTo(&buf)
				require.NoError(t, err)
				assert.Equal(t, int64(len(data)), n)
				assert.Equal(t, data, buf.Bytes())
			})
		}
	}
}
