package datafile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// document is one decoded document and when it was loaded.
type document struct {
	data   map[string]any
	loaded time.Time
	ttl    time.Duration
}

// IsExpired returns true if the document has outlived its TTL.
func (d *document) IsExpired() bool {
	if d.ttl <= 0 {
		return true // No caching
	}
	return time.Since(d.loaded) > d.ttl
}

// documentCache keeps decoded documents for a short time so one pass reads
// each document once.
type documentCache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu   sync.RWMutex
	docs map[string]*document
	sf   singleflight.Group
}

func newDocumentCache(fetcher Fetcher, ttl time.Duration) *documentCache {
	return &documentCache{
		fetcher: fetcher,
		ttl:     ttl,
		docs:    make(map[string]*document),
	}
}

// Get returns the decoded document, loading it when missing or expired.
// Concurrent loads of the same document are collapsed into one.
func (c *documentCache) Get(ctx context.Context, name string) (map[string]any, error) {
	c.mu.RLock()
	doc, ok := c.docs[name]
	c.mu.RUnlock()
	if ok && !doc.IsExpired() {
		return doc.data, nil
	}

	result, err, _ := c.sf.Do(name, func() (any, error) {
		c.mu.RLock()
		doc, ok := c.docs[name]
		c.mu.RUnlock()
		if ok && !doc.IsExpired() {
			return doc.data, nil
		}

		raw, err := c.fetcher.Fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		data, err := Decode(name, raw)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.docs[name] = &document{data: data, loaded: time.Now(), ttl: c.ttl}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]any), nil
}

// Invalidate drops every cached document.
func (c *documentCache) Invalidate() {
	c.mu.Lock()
	c.docs = make(map[string]*document)
	c.mu.Unlock()
}
