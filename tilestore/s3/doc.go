// Package s3 provides an Amazon S3 implementation of the tilestore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("tiles/"),
//	    s3.WithRegion("us-east-1"),
//	    s3.WithContentEncoding("gzip"),
//	)
//
//	pub := tilestore.NewPublisher(store, tilestore.PublisherOptions{Codec: codec.Gzip{}})
//
// # Features
//
//   - Streaming uploads through the S3 upload manager
//   - Automatic pagination for listing
//   - Content-Type and Content-Encoding metadata so buckets can serve tiles directly
//   - Configurable prefix for multi-tenant isolation
package s3
