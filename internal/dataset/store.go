package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/metrics"
	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/pkg/logger"
	"github.com/histpatch/backend/pkg/retry"
)

// Store caches the manifest and lazily fetched shard files. A shard is
// fetched at most once per file identifier; an in-flight guard keeps two
// concurrent first requests from issuing a duplicate fetch.
type Store struct {
	baseURL      string
	manifestPath string
	logsPath     string
	httpClient   *http.Client
	retryConfig  retry.Config
	enricher     *Enricher

	mu       sync.Mutex
	manifest *models.Manifest
	shards   map[string][]models.LogRecord
	order    []string
	inflight map[string]chan struct{}
}

func NewStore(baseURL, manifestPath, logsPath string, fetchTimeout time.Duration, enricher *Enricher) *Store {
	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = logger.GetLogger()

	return &Store{
		baseURL:      baseURL,
		manifestPath: manifestPath,
		logsPath:     logsPath,
		httpClient:   &http.Client{Timeout: fetchTimeout},
		retryConfig:  retryConfig,
		enricher:     enricher,
		shards:       make(map[string][]models.LogRecord),
		inflight:     make(map[string]chan struct{}),
	}
}

// LoadManifest fetches the shard index. Called once at startup; failure is
// fatal to the caller. The current_year shard is loaded right after so the
// initial feed has data, but its failure only costs records, not the server.
func (s *Store) LoadManifest(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s", s.baseURL, s.manifestPath)

	var manifest models.Manifest
	err := retry.Do(ctx, s.retryConfig, func() error {
		return s.fetchJSON(ctx, url, &manifest)
	})
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	s.mu.Lock()
	s.manifest = &manifest
	s.mu.Unlock()

	logger.Info("Manifest loaded",
		zap.Int("current_year", manifest.CurrentYear),
		zap.Int("years", len(manifest.YearsAvailable)),
		zap.Int("eras", len(manifest.Eras)),
	)

	if file := manifest.CurrentYearFile(); file != "" {
		if err := s.Load(ctx, file); err != nil {
			logger.Warn("Failed to load current year shard", zap.String("file", file), zap.Error(err))
		}
	}

	return nil
}

func (s *Store) Manifest() *models.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// Load fetches and caches one shard. Re-requesting a cached identifier is a
// no-op; a request for an identifier already being fetched waits for that
// fetch instead of starting a second one.
func (s *Store) Load(ctx context.Context, file string) error {
	for {
		s.mu.Lock()
		if _, ok := s.shards[file]; ok {
			s.mu.Unlock()
			return nil
		}
		if done, ok := s.inflight[file]; ok {
			s.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		done := make(chan struct{})
		s.inflight[file] = done
		s.mu.Unlock()

		records, err := s.fetchShard(ctx, file)

		s.mu.Lock()
		delete(s.inflight, file)
		if err == nil {
			s.shards[file] = records
			s.order = append(s.order, file)
		}
		s.mu.Unlock()
		close(done)

		if err != nil {
			metrics.ShardLoads.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to load shard %s: %w", file, err)
		}

		metrics.ShardLoads.WithLabelValues("ok").Inc()
		logger.Info("Shard loaded", zap.String("file", file), zap.Int("records", len(records)))
		return nil
	}
}

func (s *Store) fetchShard(ctx context.Context, file string) ([]models.LogRecord, error) {
	url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.logsPath, file)

	var records []models.LogRecord
	err := retry.Do(ctx, s.retryConfig, func() error {
		records = nil
		return s.fetchJSON(ctx, url, &records)
	})
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i].Shard = file
		if s.enricher != nil && len(records[i].Keywords) == 0 {
			records[i].Keywords = s.enricher.Keywords(records[i].Title)
		}
	}

	return records, nil
}

func (s *Store) fetchJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}

	return nil
}

// Loaded reports whether a shard is present in the cache.
func (s *Store) Loaded(file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.shards[file]
	return ok
}

// Merged returns every cached shard's records concatenated in shard
// insertion order. Recomputed per call; no de-duplication across shards.
func (s *Store) Merged() []models.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, file := range s.order {
		total += len(s.shards[file])
	}

	merged := make([]models.LogRecord, 0, total)
	for _, file := range s.order {
		merged = append(merged, s.shards[file]...)
	}
	return merged
}
