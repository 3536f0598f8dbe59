package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/multun/mvt"
	"github.com/multun/mvt/tilestore"
)

var errBlobClosed = errors.New("blob already closed")

type storeOptions struct {
	prefix          string
	region          string
	contentType     string
	contentEncoding string
}

// Option configures a Store.
type Option func(*storeOptions)

// WithPrefix sets the key prefix prepended to all tile names. Used by New.
func WithPrefix(prefix string) Option {
	return func(o *storeOptions) { o.prefix = prefix }
}

// WithRegion sets the AWS region. Used by New.
func WithRegion(region string) Option {
	return func(o *storeOptions) { o.region = region }
}

// WithContentEncoding sets the Content-Encoding metadata of written objects.
func WithContentEncoding(enc string) Option {
	return func(o *storeOptions) { o.contentEncoding = enc }
}

// WithContentType overrides the Content-Type metadata of written objects.
func WithContentType(ct string) Option {
	return func(o *storeOptions) { o.contentType = ct }
}

// Store implements tilestore.Store for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	opts     storeOptions
}

// New loads the default AWS configuration and creates a Store for bucket.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := newStoreOptions(opts)
	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return newStore(s3.NewFromConfig(cfg), bucket, o), nil
}

// NewStore creates a new S3 tile store.
// rootPrefix is prepended to all keys (e.g. "basemap/").
func NewStore(client Client, bucket, rootPrefix string, opts ...Option) *Store {
	o := newStoreOptions(opts)
	o.prefix = rootPrefix
	return newStore(client, bucket, o)
}

func newStoreOptions(opts []Option) storeOptions {
	o := storeOptions{contentType: mvt.ContentType}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newStore(client Client, bucket string, o storeOptions) *Store {
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		opts:     o,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.opts.prefix, name)
}

func (s *Store) putInput(key string, body io.Reader) *s3.PutObjectInput {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(s.opts.contentType),
	}
	if s.opts.contentEncoding != "" {
		in.ContentEncoding = aws.String(s.opts.contentEncoding)
	}
	return in
}

// Get downloads a tile.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, tilestore.ErrNotFound
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// Put uploads a tile in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	in := s.putInput(s.key(name), bytes.NewReader(data))
	in.ContentLength = aws.Int64(int64(len(data)))
	_, err := s.client.PutObject(ctx, in)
	return err
}

// Create starts a streaming upload. Large tiles are sent as multipart uploads.
func (s *Store) Create(ctx context.Context, name string) (tilestore.WritableBlob, error) {
	pr, pw := io.Pipe()

	blob := &s3WritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	// Start upload in background
	go func() {
		_, err := s.uploader.Upload(ctx, s.putInput(s.key(name), pr))
		// Close the reader end of the pipe after upload completes/fails
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Delete removes a tile. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted names of tiles under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		fullPrefix += "/"
	}
	return listObjects(ctx, s.client, s.bucket, fullPrefix, s.opts.prefix)
}

// s3WritableBlob implements tilestore.WritableBlob
type s3WritableBlob struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (b *s3WritableBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, errBlobClosed
	}
	return b.pw.Write(p)
}

func (b *s3WritableBlob) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return errBlobClosed
	}
	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}

func (b *s3WritableBlob) Abort() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = b.pw.CloseWithError(errors.New("upload aborted"))
	<-b.done
	return nil
}
