package live

import (
	"context"
	"log/slog"
	"sync"

	"bookinghub/backend/internal/domain"
)

type StatsSource interface {
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// StatsTracker holds the most recently computed statistics. A failed refresh
// keeps the previous value.
type StatsTracker struct {
	src StatsSource
	log *slog.Logger

	mu      sync.RWMutex
	stats   domain.Statistics
	loading bool
}

func NewStatsTracker(src StatsSource, log *slog.Logger) *StatsTracker {
	if log == nil {
		log = slog.Default()
	}
	return &StatsTracker{
		src: src,
		log: log.With(slog.String("component", "live.stats")),
		stats: domain.Statistics{
			ServiceBreakdown: map[string]int{},
			TopServices:      []domain.ServiceCount{},
		},
		loading: true,
	}
}

func (t *StatsTracker) Refresh(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.mu.Unlock()

	stats, err := t.src.Statistics(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false
	if err != nil {
		t.log.Error("statistics load failed", slog.Any("err", err))
		return err
	}
	t.stats = stats
	return nil
}

func (t *StatsTracker) Stats() (domain.Statistics, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats, t.loading
}
