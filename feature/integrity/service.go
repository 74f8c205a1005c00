package integrity

import (
	"context"
	"errors"

	"marker-sync/core/storage"
	"marker-sync/feature/datafile"
	"marker-sync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNoDatabase is returned by the renderer check when the renderer is
	// not database-backed.
	ErrNoDatabase = errors.New("renderer is not database-backed")
	// ErrNoStorage is returned by the storage check when documents are not
	// read from object storage.
	ErrNoStorage = errors.New("source is not bucket-backed")
)

// Service handles deployment checks.
type Service struct {
	fetcher   datafile.Fetcher
	documents []string
	db        *gorm.DB
	client    storage.Client
	bucket    string
	prefix    string
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDatabase enables the renderer schema check.
func WithDatabase(db *gorm.DB) Option {
	return func(s *Service) { s.db = db }
}

// WithStorage enables the object storage check for documents under
// bucket/prefix.
func WithStorage(client storage.Client, bucket, prefix string) Option {
	return func(s *Service) {
		s.client = client
		s.bucket = bucket
		s.prefix = prefix
	}
}

// NewService creates a new integrity service.
func NewService(fetcher datafile.Fetcher, documents []string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher:   fetcher,
		documents: documents,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckDocuments returns the source documents that cannot be found.
func (s *Service) CheckDocuments(ctx context.Context) ([]string, error) {
	return checks.CheckDocuments(ctx, s.fetcher, s.documents)
}

// CheckRenderer compares the marker tables with the expected schema.
func (s *Service) CheckRenderer() (*checks.SchemaReport, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return checks.CheckRendererSchema(s.db)
}

// CheckStorage verifies the bucket and stats the source documents.
func (s *Service) CheckStorage(ctx context.Context) (*checks.BucketReport, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}
	return checks.CheckBucket(ctx, s.client, s.bucket, s.prefix, s.documents)
}
