// Package reportcache keeps the latest rebalance report in a cache backend
// so the HTTP surface can serve it without touching the simulation.
package reportcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GrowthSim/internal/domain/models"
	"GrowthSim/pkg/cache"
)

var latestKey = cache.GenerateKey("growthsim:portfolio", "latest")

// ReportCache stores the latest snapshot as JSON under a fixed key.
type ReportCache struct {
	cache cache.Service
	ttl   time.Duration
}

func New(c cache.Service, ttl time.Duration) *ReportCache {
	return &ReportCache{cache: c, ttl: ttl}
}

func (r *ReportCache) SetLatest(ctx context.Context, s *models.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.cache.Set(ctx, latestKey, string(payload), r.ttl); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}
	return nil
}

// Latest returns the cached snapshot; a miss or an undecodable entry reads
// as absent.
func (r *ReportCache) Latest(ctx context.Context) (*models.Snapshot, bool) {
	var raw string
	if err := r.cache.Get(ctx, latestKey, &raw); err != nil {
		return nil, false
	}
	var s models.Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, false
	}
	return &s, true
}
