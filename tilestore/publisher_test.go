package tilestore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/multun/mvt"
	"github.com/multun/mvt/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTile(t *testing.T, name string) *mvt.Tile {
	t.Helper()
	tile := mvt.NewTile(4096)
	layer := tile.CreateLayer(name)
	f := layer.IntoFeature(mvt.EncodedGeometry{Type: mvt.Point, Data: []uint32{9, 50, 34}})
	f.AddTagString("name", name)
	layer = f.IntoLayer()
	require.NoError(t, tile.AddLayer(layer))
	return tile
}

type failingStore struct {
	*MemoryStore
	fail  string
	calls atomic.Int32
}

var errStoreDown = errors.New("store down")

func (s *failingStore) Put(ctx context.Context, name string, data []byte) error {
	s.calls.Add(1)
	if name == s.fail {
		return errStoreDown
	}
	return s.MemoryStore.Put(ctx, name, data)
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("Identity", func(t *testing.T) {
		store := NewMemoryStore()
		pub := NewPublisher(store, PublisherOptions{})
		tile := sampleTile(t, "water")

		n, err := pub.PublishOne(ctx, Job{Key: Key{Z: 1, X: 1, Y: 0}, Tile: tile})
		require.NoError(t, err)

		want, err := tile.ToBytes()
		require.NoError(t, err)
		assert.Equal(t, len(want), n)

		got, err := store.Get(ctx, "1/1/0.mvt")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Compressed", func(t *testing.T) {
		for _, name := range []string{"gzip", "zstd", "lz4"} {
			t.Run(name, func(t *testing.T) {
				c, ok := codec.ByName(name)
				require.True(t, ok)
				store := NewMemoryStore()
				pub := NewPublisher(store, PublisherOptions{Codec: c, Extension: "pbf"})
				tile := sampleTile(t, "roads")

				_, err := pub.PublishOne(ctx, Job{Key: Key{Z: 2, X: 3, Y: 1}, Tile: tile})
				require.NoError(t, err)

				stored, err := store.Get(ctx, "2/3/1.pbf")
				require.NoError(t, err)
				raw, err := c.Decompress(stored)
				require.NoError(t, err)
				want, err := tile.ToBytes()
				require.NoError(t, err)
				assert.Equal(t, want, raw)
			})
		}
	})

	t.Run("Many", func(t *testing.T) {
		store := NewMemoryStore()
		pub := NewPublisher(store, PublisherOptions{Concurrency: 3, Codec: codec.Gzip{}})

		var jobs []Job
		for x := uint32(0); x < 16; x++ {
			jobs = append(jobs, Job{Key: Key{Z: 4, X: x, Y: x}, Tile: sampleTile(t, fmt.Sprint("l", x))})
		}
		require.NoError(t, pub.Publish(ctx, jobs))
		assert.Equal(t, 16, store.Len())

		names, err := store.List(ctx, "4/15/")
		require.NoError(t, err)
		assert.Equal(t, []string{"4/15/15.mvt"}, names)
	})

	t.Run("RateLimited", func(t *testing.T) {
		store := NewMemoryStore()
		tile := sampleTile(t, "water")
		// A burst smaller than the tile forces the request to be split.
		pub := NewPublisher(store, PublisherOptions{BytesPerSecond: 1 << 20})
		pub.limiter.SetBurst(4)

		_, err := pub.PublishOne(ctx, Job{Key: Key{}, Tile: tile})
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("InFlightBound", func(t *testing.T) {
		store := NewMemoryStore()
		tile := sampleTile(t, "water")
		// The bound is smaller than one tile, so jobs run one at a time.
		pub := NewPublisher(store, PublisherOptions{Concurrency: 4, MaxInFlightBytes: int64(tile.Size() / 2)})

		var jobs []Job
		for x := uint32(0); x < 4; x++ {
			jobs = append(jobs, Job{Key: Key{Z: 2, X: x}, Tile: sampleTile(t, "water")})
		}
		require.NoError(t, pub.Publish(ctx, jobs))
		assert.Equal(t, 4, store.Len())
		assert.True(t, pub.mem.TryAcquire(pub.opts.MaxInFlightBytes), "all reservations released")
	})

	t.Run("InvalidJobs", func(t *testing.T) {
		pub := NewPublisher(NewMemoryStore(), PublisherOptions{})
		_, err := pub.PublishOne(ctx, Job{Key: Key{Z: 1, X: 5}, Tile: sampleTile(t, "a")})
		assert.Error(t, err)
		_, err = pub.PublishOne(ctx, Job{Key: Key{}})
		assert.Error(t, err)
	})

	t.Run("StopsOnFailure", func(t *testing.T) {
		store := &failingStore{MemoryStore: NewMemoryStore(), fail: "3/0/0.mvt"}
		pub := NewPublisher(store, PublisherOptions{Concurrency: 1, Codec: codec.Gzip{}})

		var jobs []Job
		for x := uint32(0); x < 8; x++ {
			jobs = append(jobs, Job{Key: Key{Z: 3, X: x}, Tile: sampleTile(t, "a")})
		}
		err := pub.Publish(ctx, jobs)
		require.ErrorIs(t, err, errStoreDown)
		assert.Contains(t, err.Error(), "3/0/0")
		assert.Less(t, int(store.calls.Load()), len(jobs))
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		pub := NewPublisher(NewMemoryStore(), PublisherOptions{})
		_, err := pub.PublishOne(cctx, Job{Key: Key{}, Tile: sampleTile(t, "a")})
		require.ErrorIs(t, err, context.Canceled)
	})
}
