package tilestore

import (
	"context"
	"fmt"
	"time"

	"github.com/multun/mvt"
	"github.com/multun/mvt/codec"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Job is one tile to publish.
//
// The tile must not be modified while Publish runs.
type Job struct {
	Key  Key
	Tile *mvt.Tile
}

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	// Codec compresses encoded tiles. Defaults to codec.Identity.
	Codec codec.Codec

	// Extension is the file extension of tile names. Defaults to DefaultExtension.
	Extension string

	// Concurrency is the maximum number of tiles encoded and written at once.
	// If <= 0, defaults to 4.
	Concurrency int

	// BytesPerSecond limits the rate of bytes written to the store.
	// If 0, unlimited.
	BytesPerSecond int

	// MaxInFlightBytes bounds the encoded bytes held by running jobs. A tile
	// larger than the bound runs alone. If 0, unlimited.
	MaxInFlightBytes int64

	// Logger receives per-tile debug logs and failures. Defaults to mvt.NoopLogger.
	Logger *mvt.Logger
}

// Publisher encodes tiles and writes them to a Store.
type Publisher struct {
	store   Store
	opts    PublisherOptions
	limiter *rate.Limiter
	mem     *semaphore.Weighted
}

// NewPublisher creates a Publisher writing to store.
func NewPublisher(store Store, opts PublisherOptions) *Publisher {
	if opts.Codec == nil {
		opts.Codec = codec.Identity{}
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = mvt.NoopLogger()
	}
	p := &Publisher{store: store, opts: opts}
	if opts.BytesPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.BytesPerSecond), opts.BytesPerSecond)
	}
	if opts.MaxInFlightBytes > 0 {
		p.mem = semaphore.NewWeighted(opts.MaxInFlightBytes)
	}
	return p
}

// Name returns the store name a key is published under.
func (p *Publisher) Name(k Key) string {
	return k.Path(p.opts.Extension)
}

// Publish encodes and stores all jobs, running up to Concurrency at a time.
// It stops at the first failure and returns it; tiles already written stay
// in the store.
func (p *Publisher) Publish(ctx context.Context, jobs []Job) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, job := range jobs {
		g.Go(func() error {
			_, err := p.PublishOne(gctx, job)
			return err
		})
	}
	return g.Wait()
}

// PublishOne encodes, compresses and stores a single tile, returning the
// number of bytes written to the store.
func (p *Publisher) PublishOne(ctx context.Context, job Job) (int, error) {
	if !job.Key.Valid() {
		return 0, fmt.Errorf("publish %s: tile out of range", job.Key)
	}
	if job.Tile == nil {
		return 0, fmt.Errorf("publish %s: nil tile", job.Key)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()
	name := p.Name(job.Key)

	reserved, err := p.reserve(ctx, job.Tile.Size())
	if err != nil {
		return 0, err
	}
	defer p.release(reserved)

	n, err := p.write(ctx, name, job.Tile)
	if err != nil {
		p.opts.Logger.ErrorContext(ctx, "tile publish failed",
			"tile", name,
			"error", err,
		)
		return 0, fmt.Errorf("publish %s: %w", job.Key, err)
	}
	p.opts.Logger.DebugContext(ctx, "tile published",
		"tile", name,
		"bytes", n,
		"codec", p.opts.Codec.Name(),
		"duration", time.Since(start),
	)
	return n, nil
}

func (p *Publisher) write(ctx context.Context, name string, tile *mvt.Tile) (int, error) {
	if _, ok := p.opts.Codec.(codec.Identity); ok {
		// Uncompressed tiles are streamed straight into the store.
		if err := p.wait(ctx, tile.Size()); err != nil {
			return 0, err
		}
		w, err := p.store.Create(ctx, name)
		if err != nil {
			return 0, err
		}
		n, err := tile.WriteTo(w)
		if err != nil {
			_ = w.Abort()
			return 0, err
		}
		return int(n), w.Close()
	}

	raw, err := tile.ToBytes()
	if err != nil {
		return 0, err
	}
	data, err := p.opts.Codec.Compress(raw)
	if err != nil {
		return 0, fmt.Errorf("compress: %w", err)
	}
	if err := p.wait(ctx, len(data)); err != nil {
		return 0, err
	}
	if err := p.store.Put(ctx, name, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// reserve accounts n bytes against MaxInFlightBytes, clamped to the bound.
func (p *Publisher) reserve(ctx context.Context, n int) (int64, error) {
	if p.mem == nil || n <= 0 {
		return 0, nil
	}
	w := min(int64(n), p.opts.MaxInFlightBytes)
	if err := p.mem.Acquire(ctx, w); err != nil {
		return 0, err
	}
	return w, nil
}

func (p *Publisher) release(n int64) {
	if n > 0 {
		p.mem.Release(n)
	}
}

// wait blocks until n bytes may be written. Requests larger than the burst
// are split.
func (p *Publisher) wait(ctx context.Context, n int) error {
	if p.limiter == nil {
		return nil
	}
	burst := p.limiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := p.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
