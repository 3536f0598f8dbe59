// Package minio provides a tilestore.Store implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible object stores such as Ceph,
// SeaweedFS and Garage, without pulling in the AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := miniostore.NewStore(client, "tiles", "basemap/", miniostore.WithContentEncoding("gzip"))
//	pub := tilestore.NewPublisher(store, tilestore.PublisherOptions{Codec: codec.Gzip{}})
//
// Objects are written with the vector tile media type, so a bucket can be
// served to map clients directly.
package minio
