package checks

import (
	"context"
	"errors"
	"fmt"

	"marker-sync/feature/datafile"
)

// CheckDocuments returns the source documents the fetcher cannot find.
// Empty names are skipped.
func CheckDocuments(ctx context.Context, fetcher datafile.Fetcher, names []string) ([]string, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("document fetcher is nil")
	}

	missing := []string{}
	for _, name := range names {
		if name == "" {
			continue
		}
		_, err := fetcher.Fetch(ctx, name)
		if errors.Is(err, datafile.ErrNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check document %s: %w", name, err)
		}
	}
	return missing, nil
}
