package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"ikshan/internal/models"
)

// ErrSourceUnavailable wraps any fetch or parse failure so callers can fall
// back to degraded behavior instead of surfacing transport errors.
var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Sources holds the three dataset definitions.
type Sources struct {
	Companies  Source
	Tools      Source
	Assistants Source
}

// Loader fetches, parses, and caches the catalog datasets. Concurrent
// requests for the same dataset share a single fetch; a successful load is
// served from cache until the TTL expires or Invalidate is called.
type Loader struct {
	fetcher Fetcher
	sources Sources
	cache   *cache.Cache
	group   singleflight.Group
	logger  *logrus.Logger
}

const (
	cacheKeyCompanies  = "dataset:companies"
	cacheKeyTools      = "dataset:tools"
	cacheKeyAssistants = "dataset:assistants"
)

// NewLoader creates a loader with the given cache TTL. Expired entries are
// swept at twice the TTL.
func NewLoader(fetcher Fetcher, sources Sources, ttl time.Duration, logger *logrus.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		sources: sources,
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

// Companies returns the consolidated startup records.
func (l *Loader) Companies(ctx context.Context) ([]models.CatalogRecord, error) {
	return l.load(ctx, cacheKeyCompanies, l.sources.Companies, parseCompanies)
}

// Tools returns the unified tools list.
func (l *Loader) Tools(ctx context.Context) ([]models.CatalogRecord, error) {
	return l.load(ctx, cacheKeyTools, l.sources.Tools, parseTools)
}

// Assistants returns the curated assistant list.
func (l *Loader) Assistants(ctx context.Context) ([]models.CatalogRecord, error) {
	return l.load(ctx, cacheKeyAssistants, l.sources.Assistants, parseAssistants)
}

func (l *Loader) load(ctx context.Context, key string, src Source, parse func([][]string) []models.CatalogRecord) ([]models.CatalogRecord, error) {
	if cached, found := l.cache.Get(key); found {
		return cached.([]models.CatalogRecord), nil
	}

	result, err, _ := l.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight lock; a concurrent caller may have
		// populated the cache while this goroutine waited.
		if cached, found := l.cache.Get(key); found {
			return cached, nil
		}

		rows, err := l.fetcher.Rows(ctx, src)
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"source": src.Name,
				"error":  err.Error(),
			}).Warn("Dataset fetch failed")
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.Name, err)
		}

		records := parse(rows)
		l.logger.WithFields(logrus.Fields{
			"source":  src.Name,
			"records": len(records),
		}).Info("Dataset parsed")

		l.cache.SetDefault(key, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.CatalogRecord), nil
}

// Invalidate drops all cached datasets. The next request per dataset
// triggers a fresh fetch.
func (l *Loader) Invalidate() {
	l.cache.Flush()
	l.logger.Info("Catalog cache invalidated")
}
