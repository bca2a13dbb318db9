// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mkarlsen/spireline/internal/engine"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for match history records.
var DefaultQueueName = "spireline_history"

// HistoryRecord wraps one history entry with the match it belongs to, in the
// shape the historian service consumes.
type HistoryRecord struct {
	MatchID    uuid.UUID           `json:"match_id"`
	Index      int                 `json:"index"`
	ActionKind string              `json:"action_kind"`
	Seed       int64               `json:"seed"`
	Entry      engine.HistoryEntry `json:"entry"`
	Timestamp  int64               `json:"timestamp"`
}

// NewHistoryRecord builds the queue record for one recorded entry.
func NewHistoryRecord(matchID uuid.UUID, e engine.HistoryEntry) HistoryRecord {
	return HistoryRecord{
		MatchID:    matchID,
		Index:      e.Index,
		ActionKind: string(e.Action.Kind),
		Seed:       e.Seed,
		Entry:      e,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishHistoryRecord serializes the record to JSON and pushes it onto the
// history queue. Cheap enough to call from the session's record hook.
func PublishHistoryRecord(ctx context.Context, record HistoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal HistoryRecord: %w", err)
	}

	queueName := getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
