// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the small read-only Client interface the
// location source needs when the upstream data files are published to a
// bucket instead of a local directory. Both AWS S3 and self-hosted MinIO work.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - StatObject: Checks that a document exists.
//   - GetObject: Retrieves content as a stream.
//
// IsNotFound maps the provider's "no such key/bucket" responses to a single
// check.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, "locations")
package storage
