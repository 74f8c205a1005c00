package datafile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"marker-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrNotFound is returned by a Fetcher when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Fetcher reads raw documents by name.
type Fetcher interface {
	// Fetch returns the document content. A missing document is ErrNotFound.
	Fetch(ctx context.Context, name string) ([]byte, error)
	// Location describes where documents are read from.
	Location() string
}

// DirFetcher reads documents from a local directory.
type DirFetcher struct {
	root string
}

// NewDirFetcher creates a fetcher rooted at dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{root: dir}
}

// Location returns the directory.
func (f *DirFetcher) Location() string {
	return f.root
}

// Fetch reads root/name.
func (f *DirFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// BucketFetcher reads documents from object storage.
type BucketFetcher struct {
	client storage.Client
	bucket string
	prefix string
}

// NewBucketFetcher creates a fetcher reading bucket/prefix/<name>.
func NewBucketFetcher(client storage.Client, bucket, prefix string) *BucketFetcher {
	return &BucketFetcher{client: client, bucket: bucket, prefix: prefix}
}

// Location returns the bucket and prefix.
func (f *BucketFetcher) Location() string {
	return path.Join(f.bucket, f.prefix)
}

// Fetch downloads the object. Minio objects are lazy, so errors may only show
// up while reading; both paths map "no such key" to ErrNotFound.
func (f *BucketFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(f.prefix, name)

	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, f.wrap(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, f.wrap(key, err)
	}
	return data, nil
}

func (f *BucketFetcher) wrap(key string, err error) error {
	if storage.IsNotFound(err) {
		return fmt.Errorf("%s/%s: %w", f.bucket, key, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s/%s: %w", f.bucket, key, err)
}
