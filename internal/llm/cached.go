package llm

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kyleking/chart-intent/internal/cache"
	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/types"
)

// CachedService remembers analyses keyed on the question and the dataset shape
type CachedService struct {
	next   Service
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedService wraps next with c; a zero ttl uses the cache default
func NewCachedService(next Service, c cache.Cache, ttl time.Duration) *CachedService {
	return &CachedService{next: next, cache: c, ttl: ttl, logger: logging.GetLogger()}
}

// Configure forwards to the wrapped service
func (s *CachedService) Configure(config Config) error {
	return s.next.Configure(config)
}

// Analyze returns a cached analysis when one exists. Only structured answers
// are stored so a transient plain-text reply is retried next time.
func (s *CachedService) Analyze(ctx context.Context, question string, data DataContext) (*types.Analysis, error) {
	key := cacheKey(question, data)

	var cached types.Analysis
	switch err := cache.GetJSON(ctx, s.cache, key, &cached); {
	case err == nil:
		s.logger.WithField("key", key).Debug("analysis cache hit")
		return &cached, nil
	case !errors.Is(err, cache.ErrMiss):
		s.logger.WithError(err).Warn("analysis cache read failed")
	}

	analysis, err := s.next.Analyze(ctx, question, data)
	if err != nil {
		return nil, err
	}

	if analysis != nil && analysis.Structured {
		if err := cache.SetJSON(ctx, s.cache, key, analysis, s.ttl); err != nil {
			s.logger.WithError(err).Warn("analysis cache write failed")
		}
	}

	return analysis, nil
}

func cacheKey(question string, data DataContext) string {
	var sb strings.Builder

	sb.WriteString("analysis|")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("|")
	sb.WriteString(data.Name)
	sb.WriteString("|")
	sb.WriteString(strconv.Itoa(data.Rows))

	for _, c := range data.Columns {
		sb.WriteString("|")
		sb.WriteString(c)
		sb.WriteString(":")
		sb.WriteString(data.ColumnKinds[c])
	}

	return sb.String()
}
