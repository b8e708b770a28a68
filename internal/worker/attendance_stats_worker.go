package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/hadirku/hadirku-backend/internal/websocket"
)

const (
	StatsPollTimeout = 1 * time.Second
	// StatsCacheTTL bounds staleness if a refresh request is ever lost; the
	// service falls back to the database on an expired entry.
	StatsCacheTTL = 12 * time.Hour
)

// AttendanceStatsWorker recomputes a session's cached attendance tallies
// whenever a record changes. Check-in and mark handlers push session IDs
// onto the queue; the worker folds duplicates by simply recomputing.
type AttendanceStatsWorker struct {
	recordRepo *repository.AttendanceRecordRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewAttendanceStatsWorker creates a new AttendanceStatsWorker.
func NewAttendanceStatsWorker(recordRepo *repository.AttendanceRecordRepository, rdb *redis.Client, log zerolog.Logger) *AttendanceStatsWorker {
	return &AttendanceStatsWorker{
		recordRepo: recordRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "attendance_stats_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is canceled. On shutdown it drains
// the queue so no refresh request is lost.
func (w *AttendanceStatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttendanceStatsWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining stats queue...")
			w.drain(context.Background())
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatsPollTimeout, config.WorkerKey.AttendanceStatsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			w.refresh(ctx, item[1])
		}
	}
}

// refresh recomputes one session's tallies from PostgreSQL and writes them
// back to the Redis hash the stats endpoint reads.
func (w *AttendanceStatsWorker) refresh(ctx context.Context, rawID string) {
	sessionID, err := uuid.Parse(rawID)
	if err != nil {
		w.log.Error().Str("session_id", rawID).Msg("Invalid session ID in queue")
		return
	}

	stats, err := w.recordRepo.StatsBySession(ctx, sessionID)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", rawID).Msg("Stats recompute failed, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.AttendanceStatsQueue, rawID)
		return
	}

	key := config.CacheKey.SessionStatsKey(rawID)
	pipe := w.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"present": stats.Present,
		"late":    stats.Late,
		"absent":  stats.Absent,
		"excused": stats.Excused,
		"total":   stats.Total,
	})
	pipe.Expire(ctx, key, StatsCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Str("session_id", rawID).Msg("Stats cache write failed")
		return
	}

	w.publishStats(ctx, rawID, stats)

	w.log.Debug().
		Str("session_id", rawID).
		Int("total", stats.Total).
		Msg("Stats refreshed")
}

// publishStats pushes the fresh tallies to monitoring teachers.
func (w *AttendanceStatsWorker) publishStats(ctx context.Context, rawID string, stats *model.SessionStats) {
	event := websocket.StatsEvent{Event: websocket.EventStats, Stats: *stats}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = w.rdb.Publish(ctx, config.CacheKey.SessionMonitorChannel(rawID), payload).Err()
}

// drain processes everything left on the queue without blocking.
func (w *AttendanceStatsWorker) drain(ctx context.Context) {
	for {
		rawID, err := w.rdb.LPop(ctx, config.WorkerKey.AttendanceStatsQueue).Result()
		if err != nil {
			if err != redis.Nil {
				w.log.Error().Err(err).Msg("Drain LPop error")
			}
			return
		}
		w.refresh(ctx, rawID)
	}
}
