// Package cache keeps phase-metadata snapshots in redis so the read-heavy
// progress endpoints skip the database. Every applied transition or reopen
// invalidates the pair's entry. All methods are nil-safe: deployments without
// redis pass a nil cache and reads fall through.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

// DefaultTTL bounds staleness if an invalidation is lost.
const DefaultTTL = 5 * time.Minute

type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func key(studentID domain.StudentID, country domain.CountryCode) string {
	return fmt.Sprintf("stepway:phases:%s:%s", studentID.String(), country.String())
}

// Get returns the cached snapshots, or ok=false on miss or any redis error.
func (c *SnapshotCache) Get(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) ([]models.PhaseMetadata, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(studentID, country)).Bytes()
	if err != nil {
		return nil, false
	}
	var snaps []models.PhaseMetadata
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, false
	}
	return snaps, true
}

// Put stores snapshots; failures are ignored, the cache is advisory.
func (c *SnapshotCache) Put(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, snaps []models.PhaseMetadata) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(snaps)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key(studentID, country), raw, c.ttl).Err()
}

// Invalidate drops the pair's entry after a state change.
func (c *SnapshotCache) Invalidate(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, key(studentID, country)).Err()
}
