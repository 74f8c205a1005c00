package checks

import (
	"context"
	"fmt"
	"path"

	"marker-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// BucketReport describes the source documents in object storage.
type BucketReport struct {
	Bucket  string           `json:"bucket"`
	Objects map[string]int64 `json:"objects"`
	Missing []string         `json:"missing"`
}

// CheckBucket verifies that the bucket exists and stats every document
// under prefix.
func CheckBucket(ctx context.Context, client storage.Client, bucket, prefix string, names []string) (*BucketReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	report := &BucketReport{
		Bucket:  bucket,
		Objects: make(map[string]int64),
		Missing: []string{},
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		key := path.Join(prefix, name)
		info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if storage.IsNotFound(err) {
			report.Missing = append(report.Missing, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", key, err)
		}
		report.Objects[name] = info.Size
	}
	return report, nil
}
