package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"smc-trading-bot/internal/engine"
	"smc-trading-bot/internal/logging"
)

const (
	// snapshotKeyPrefix is the prefix for engine snapshot keys.
	// Format: smc:snapshot:{symbol}
	snapshotKeyPrefix = "smc:snapshot"

	// snapshotTTL keeps stale snapshots from resurrecting old state after
	// a long outage
	snapshotTTL = 48 * time.Hour
)

// SnapshotStore persists engine snapshots in Redis so a restarted process
// can resume mid-session. When Redis is unavailable it falls back to an
// in-memory cache so the engine keeps running without persistence.
type SnapshotStore struct {
	client *redis.Client
	log    *logging.Logger

	mu       sync.RWMutex
	fallback map[string]engine.Snapshot
}

// NewSnapshotStore creates a snapshot store. client may be nil, in which
// case only the in-memory fallback is used.
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{
		client:   client,
		log:      logging.WithComponent("snapshot_store"),
		fallback: make(map[string]engine.Snapshot),
	}
}

func snapshotKey(symbol string) string {
	return fmt.Sprintf("%s:%s", snapshotKeyPrefix, symbol)
}

// Save writes the snapshot, preferring Redis and always updating the
// fallback cache
func (s *SnapshotStore) Save(ctx context.Context, symbol string, snap engine.Snapshot) error {
	s.mu.Lock()
	s.fallback[symbol] = snap
	s.mu.Unlock()

	if s.client == nil {
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(symbol), data, snapshotTTL).Err(); err != nil {
		s.log.Warn("redis save failed, in-memory fallback only", "error", err.Error())
		return nil
	}
	return nil
}

// Load reads the latest snapshot. Returns ok=false when none exists.
func (s *SnapshotStore) Load(ctx context.Context, symbol string) (engine.Snapshot, bool, error) {
	if s.client != nil {
		data, err := s.client.Get(ctx, snapshotKey(symbol)).Bytes()
		switch {
		case err == redis.Nil:
			// fall through to the in-memory cache
		case err != nil:
			s.log.Warn("redis load failed, trying fallback", "error", err.Error())
		default:
			var snap engine.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return engine.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
			}
			return snap, true, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.fallback[symbol]
	return snap, ok, nil
}

// Clear removes the stored snapshot
func (s *SnapshotStore) Clear(ctx context.Context, symbol string) {
	s.mu.Lock()
	delete(s.fallback, symbol)
	s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Del(ctx, snapshotKey(symbol)).Err(); err != nil {
			s.log.Warn("redis clear failed", "error", err.Error())
		}
	}
}
