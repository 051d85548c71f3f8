package diagnostic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/cache/redis"
	"github.com/histpatch/backend/internal/metrics"
	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/internal/storage/sqlite"
	"github.com/histpatch/backend/pkg/circuitbreaker"
	"github.com/histpatch/backend/pkg/logger"
	"github.com/histpatch/backend/pkg/utils"
)

// ScanStages are the staged status lines the streaming surface plays back
// before the result. Pure UX pacing; the provider call itself is single-shot.
var ScanStages = []string{
	"Initializing bio-telemetry scan...",
	"Cross-referencing against 4.5 billion years of patch notes...",
	"Detecting deprecated behaviors...",
	"Compiling diagnostic report...",
}

// Service runs diagnostics through the configured provider with a
// best-effort response cache and history log. Cache and history failures
// degrade silently; only provider failures surface to the caller.
type Service struct {
	provider Provider
	cache    *redis.Client
	db       *sqlite.Client
	breaker  *circuitbreaker.CircuitBreaker
	cacheTTL time.Duration
}

type Response struct {
	ID     string
	Text   string
	Cached bool
}

func NewService(provider Provider, cache *redis.Client, db *sqlite.Client, cacheTTLSec int) *Service {
	breaker := circuitbreaker.New("diagnostic", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		Logger:           logger.GetLogger(),
	})

	return &Service{
		provider: provider,
		cache:    cache,
		db:       db,
		breaker:  breaker,
		cacheTTL: time.Duration(cacheTTLSec) * time.Second,
	}
}

func (s *Service) Run(ctx context.Context, prompt, userID string) (*Response, error) {
	start := time.Now()
	id := uuid.New().String()
	promptHash := utils.CacheKey(s.provider.Name(), prompt)

	if s.cache != nil {
		if text, ok, err := s.cache.GetDiagnostic(ctx, promptHash); err == nil && ok {
			metrics.CacheHits.WithLabelValues("diagnostic").Inc()
			s.record(id, userID, prompt, text, true, start)
			return &Response{ID: id, Text: text, Cached: true}, nil
		}
		metrics.CacheMisses.WithLabelValues("diagnostic").Inc()
	}

	var result *Result
	err := s.breaker.Execute(ctx, func() error {
		var genErr error
		result, genErr = s.provider.Generate(ctx, prompt, userID)
		return genErr
	})
	if err != nil {
		metrics.DiagnosticTotal.WithLabelValues(s.provider.Name(), "error").Inc()
		return nil, fmt.Errorf("diagnostic failed: %w", err)
	}

	metrics.DiagnosticTotal.WithLabelValues(s.provider.Name(), "ok").Inc()
	metrics.DiagnosticDuration.Observe(time.Since(start).Seconds())
	metrics.DiagnosticTokens.WithLabelValues("prompt").Add(float64(result.PromptTokens))
	metrics.DiagnosticTokens.WithLabelValues("completion").Add(float64(result.CompletionTokens))

	if s.cache != nil {
		if err := s.cache.SetDiagnostic(ctx, promptHash, result.Text, s.cacheTTL); err != nil {
			logger.Warn("Failed to cache diagnostic", zap.Error(err))
		}
	}

	s.record(id, userID, prompt, result.Text, false, start)

	logger.Info("Diagnostic completed",
		zap.String("diagnostic_id", id),
		zap.String("provider", s.provider.Name()),
		zap.Int("latency_ms", int(time.Since(start).Milliseconds())),
	)

	return &Response{ID: id, Text: result.Text}, nil
}

func (s *Service) History(userID string, limit int) ([]models.DiagnosticRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.GetDiagnosticHistory(userID, limit)
}

func (s *Service) record(id, userID, prompt, text string, cached bool, start time.Time) {
	if s.db == nil {
		return
	}

	err := s.db.InsertDiagnosticRecord(&models.DiagnosticRecord{
		ID:        id,
		UserID:    userID,
		Prompt:    prompt,
		Response:  text,
		Provider:  s.provider.Name(),
		Cached:    cached,
		LatencyMS: int(time.Since(start).Milliseconds()),
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.Warn("Failed to record diagnostic history", zap.Error(err))
	}
}
