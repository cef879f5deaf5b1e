package enrichment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/repository"
)

const defaultConcurrency = 3

// Service enriches batches of companies through a fetcher, with a
// file-backed cache in front of it and an optional relational sink behind.
type Service struct {
	fetcher     Fetcher
	cache       *Cache
	store       repository.EnrichmentRepository
	concurrency int
	log         *zap.SugaredLogger
}

// NewService wires an enrichment service. store may be nil when no database
// is configured; concurrency <= 0 falls back to the default.
func NewService(fetcher Fetcher, cache *Cache, store repository.EnrichmentRepository, concurrency int, log *zap.SugaredLogger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{fetcher: fetcher, cache: cache, store: store, concurrency: concurrency, log: log}
}

// EnrichBatch enriches the given records, serving cache hits without a
// fetch. Results are sorted by CIN; the cache is persisted before return.
func (s *Service) EnrichBatch(ctx context.Context, records []domain.CompanyRecord) ([]domain.EnrichedRecord, error) {
	if err := s.cache.Load(); err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		enriched []domain.EnrichedRecord
		fetched  int
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for _, record := range records {
		record := record
		if cached, ok := s.cache.Get(record.CIN); ok {
			// Hits share the result slice with in-flight workers.
			mu.Lock()
			enriched = append(enriched, cached)
			mu.Unlock()
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := s.fetcher.Fetch(record)
			if err != nil {
				return fmt.Errorf("failed to enrich %s: %w", record.CIN, err)
			}
			s.cache.Put(result)
			mu.Lock()
			enriched = append(enriched, result)
			fetched++
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := s.cache.Save(); err != nil {
		return nil, err
	}

	sort.Slice(enriched, func(i, j int) bool { return enriched[i].CIN < enriched[j].CIN })

	if s.store != nil && len(enriched) > 0 {
		if err := s.store.Upsert(ctx, enriched); err != nil {
			return nil, fmt.Errorf("failed to store enriched records: %w", err)
		}
	}

	s.log.Infow("enrichment batch complete",
		"companies", len(records),
		"fetched", fetched,
		"cached", len(enriched)-fetched)
	return enriched, nil
}
