package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/cache"
)

// TTL configurations for upload states kept in Redis
const (
	UploadStateTTLActive   = 24 * time.Hour // in-flight or abandoned uploads
	UploadStateTTLComplete = 1 * time.Hour  // finished uploads, kept for late reconnects
)

// UploadTracker keeps the live state of bulk student imports in Redis so the
// SSE progress endpoint can serve clients that connect (or reconnect) while
// an import is running or shortly after it finished.
type UploadTracker struct {
	cache *cache.RedisCache
}

// NewUploadTracker creates a new upload tracker instance
func NewUploadTracker(redisCache *cache.RedisCache) *UploadTracker {
	return &UploadTracker{cache: redisCache}
}

// CreateUpload registers a fresh upload with zeroed counters.
func (t *UploadTracker) CreateUpload(ctx context.Context, uploadID string, totalRows int) (*model.UploadState, error) {
	state := &model.UploadState{
		UploadID:  uploadID,
		TotalRows: totalRows,
		UpdatedAt: time.Now(),
	}

	key := fmt.Sprintf(model.RedisKeyUploadState, uploadID)
	if err := t.cache.SetJSON(ctx, key, state, UploadStateTTLActive); err != nil {
		return nil, fmt.Errorf("failed to save upload state: %w", err)
	}

	return state, nil
}

// UpdateState overwrites the stored state for an upload.
func (t *UploadTracker) UpdateState(ctx context.Context, state *model.UploadState) error {
	state.UpdatedAt = time.Now()

	ttl := UploadStateTTLActive
	if state.Completed {
		ttl = UploadStateTTLComplete
	}

	key := fmt.Sprintf(model.RedisKeyUploadState, state.UploadID)
	if err := t.cache.SetJSON(ctx, key, state, ttl); err != nil {
		return fmt.Errorf("failed to update upload state: %w", err)
	}
	return nil
}

// GetState retrieves the live state for an upload.
func (t *UploadTracker) GetState(ctx context.Context, uploadID string) (*model.UploadState, error) {
	key := fmt.Sprintf(model.RedisKeyUploadState, uploadID)

	var state model.UploadState
	if err := t.cache.GetJSON(ctx, key, &state); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, fmt.Errorf("upload not found or expired: %s", uploadID)
		}
		return nil, fmt.Errorf("failed to get upload state: %w", err)
	}

	return &state, nil
}
