package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// TaskStats is the per-user summary snapshot.
type TaskStats struct {
	TotalTasks     int64            `json:"totalTasks"`
	OverdueTasks   int64            `json:"overdueTasks"`
	StatusCounts   map[string]int64 `json:"statusCounts"`
	CompletionRate int              `json:"completionRate"`
}

// StatsCache caches computed summaries. Implemented by cache.Cache; a nil
// value disables caching.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// StatsService computes summary snapshots from the task repository. It is
// read-only with respect to tasks.
type StatsService struct {
	repo  repository.TaskRepositoryInterface
	cache StatsCache
	now   Clock
}

func NewStatsService(repo repository.TaskRepositoryInterface, cache StatsCache, now Clock) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{repo: repo, cache: cache, now: now}
}

func statsCacheKey(userID uuid.UUID) string {
	return "stats:" + userID.String()
}

// Summarize returns the user's task statistics. Every known status appears
// in StatusCounts even when its count is zero.
func (s *StatsService) Summarize(ctx context.Context, userID uuid.UUID) (*TaskStats, error) {
	if s.cache != nil {
		var cached TaskStats
		hit, err := s.cache.Get(ctx, statsCacheKey(userID), &cached)
		if err != nil {
			log.Printf("⚠️  Stats cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	counts, err := s.repo.StatusCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	statusCounts := map[string]int64{
		model.StatusPending:    0,
		model.StatusInProgress: 0,
		model.StatusCompleted:  0,
	}
	var total int64
	for status, count := range counts {
		statusCounts[status] = count
		total += count
	}

	overdue, err := s.repo.CountOverdue(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	stats := &TaskStats{
		TotalTasks:     total,
		OverdueTasks:   overdue,
		StatusCounts:   statusCounts,
		CompletionRate: completionRate(statusCounts[model.StatusCompleted], total),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey(userID), stats); err != nil {
			log.Printf("⚠️  Stats cache write failed: %v", err)
		}
	}
	return stats, nil
}

// InvalidateUser drops the cached summary after a task mutation.
func (s *StatsService) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(userID)); err != nil {
		log.Printf("⚠️  Stats cache invalidation failed: %v", err)
	}
}

// completionRate rounds half away from zero, matching how the percentage was
// historically reported.
func completionRate(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
