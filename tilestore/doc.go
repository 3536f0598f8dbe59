// Package tilestore stores encoded vector tiles.
//
// Store is the interface for reading and writing tile objects, named by
// their z/x/y path. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and small caches
//   - LocalStore: local filesystem directory tree ({z}/{x}/{y}.mvt)
//   - CachingStore: read-through LRU cache in front of another Store
//   - minio.Store: MinIO and other S3-compatible object stores
//   - s3.Store: Amazon S3
//
// # Publishing
//
// Publisher encodes many tiles concurrently, compresses them with a codec
// and writes them to a Store:
//
//	pub := tilestore.NewPublisher(store, tilestore.PublisherOptions{
//	    Codec:       codec.Gzip{},
//	    Concurrency: 8,
//	})
//	err := pub.Publish(ctx, []tilestore.Job{{Key: tilestore.Key{Z: 3, X: 4, Y: 2}, Tile: tile}})
//
// # Serving
//
// NewHandler returns an http.Handler serving stored tiles with the vector
// tile media type and a Content-Encoding matching the publisher's codec.
package tilestore
