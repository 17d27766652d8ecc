package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/model"
)

const (
	statsPollTimeout = 1 * time.Second
	// statsTTL keeps daily counters around long enough for yesterday
	// comparisons, then lets them expire.
	statsTTL = 48 * time.Hour
)

// StatsWorker consumes the recognition event queue and maintains per-day
// counters (per outcome, and per group for accepted recognitions) in
// Redis hashes for the admin dashboard.
type StatsWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewStatsWorker creates a new StatsWorker.
func NewStatsWorker(rdb *redis.Client, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		rdb: rdb,
		log: log.With().Str("component", "stats_worker").Logger(),
	}
}

// Start runs the consume loop until ctx is cancelled.
func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("StatsWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, statsPollTimeout, config.WorkerKey.RecognitionEventsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Queue pop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			// BLPop returns [key, value].
			if len(item) < 2 {
				continue
			}
			w.apply(ctx, []byte(item[1]))
		}
	}
}

func (w *StatsWorker) apply(ctx context.Context, payload []byte) {
	var ev model.RecognitionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		w.log.Error().Err(err).Msg("Malformed recognition event dropped")
		return
	}

	day := ev.At.UTC().Format("2006-01-02")
	key := config.CacheKey.DailyStatsKey(day)

	pipe := w.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, string(ev.Outcome), 1)
	if ev.Outcome == model.OutcomeRecognized && ev.GroupID != nil {
		pipe.HIncrBy(ctx, key, "group:"+strconv.Itoa(*ev.GroupID), 1)
	}
	pipe.Expire(ctx, key, statsTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Str("day", day).Msg("Failed to update daily stats")
	}
}
