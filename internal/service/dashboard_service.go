package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/presensi-backend/internal/config"
)

// DashboardService reads the daily recognition counters the stats worker
// maintains in Redis.
type DashboardService struct {
	rdb *redis.Client
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(rdb *redis.Client) *DashboardService {
	return &DashboardService{rdb: rdb}
}

// DayStats summarizes one day's recognitions.
type DayStats struct {
	Day      string            `json:"day"`
	ByGroup  map[string]string `json:"by_group"`
	Outcomes map[string]string `json:"outcomes"`
}

// TodayStats returns today's per-group and per-outcome counters.
func (s *DashboardService) TodayStats(ctx context.Context) (*DayStats, error) {
	day := time.Now().UTC().Format("2006-01-02")

	fields, err := s.rdb.HGetAll(ctx, config.CacheKey.DailyStatsKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("read daily stats: %w", err)
	}

	stats := &DayStats{
		Day:      day,
		ByGroup:  make(map[string]string),
		Outcomes: make(map[string]string),
	}
	for field, count := range fields {
		if len(field) > 6 && field[:6] == "group:" {
			stats.ByGroup[field[6:]] = count
		} else {
			stats.Outcomes[field] = count
		}
	}
	return stats, nil
}
