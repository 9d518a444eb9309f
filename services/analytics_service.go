package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/cache"
	"gorm.io/gorm"
)

const (
	analyticsCacheKey = "analytics:overview"
	analyticsCacheTTL = 5 * time.Minute
)

// AnalyticsService aggregates counts for the admin dashboard. Results are
// cached briefly in Redis since the dashboard polls.
type AnalyticsService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB, redisCache *cache.RedisCache) *AnalyticsService {
	return &AnalyticsService{db: db, cache: redisCache}
}

// Overview is the dashboard summary payload.
type Overview struct {
	TotalStudents        int64            `json:"total_students"`
	TotalApplications    int64            `json:"total_applications"`
	TotalMasterForms     int64            `json:"total_master_forms"`
	ApplicationsByState  map[string]int64 `json:"applications_by_status"`
	ApplicationsByStream map[string]int64 `json:"applications_by_stream"`
	ApplicationsByScheme map[string]int64 `json:"applications_by_scheme"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

type groupCount struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

// GetOverview returns the dashboard summary, serving from cache when fresh.
func (s *AnalyticsService) GetOverview(ctx context.Context) (*Overview, error) {
	if s.cache != nil {
		var cached Overview
		if err := s.cache.GetJSON(ctx, analyticsCacheKey, &cached); err == nil {
			return &cached, nil
		} else if err != cache.ErrNotFound {
			log.Printf("[ANALYTICS] Cache read failed: %v", err)
		}
	}

	overview := &Overview{GeneratedAt: time.Now().UTC()}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&model.StudentProfile{}, &overview.TotalStudents},
		{&model.ATKTApplication{}, &overview.TotalApplications},
		{&model.MasterForm{}, &overview.TotalMasterForms},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	var err error
	if overview.ApplicationsByState, err = s.groupApplications(ctx, "status"); err != nil {
		return nil, err
	}
	if overview.ApplicationsByStream, err = s.groupApplications(ctx, "stream"); err != nil {
		return nil, err
	}
	if overview.ApplicationsByScheme, err = s.groupApplications(ctx, "scheme"); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, analyticsCacheKey, overview, analyticsCacheTTL); err != nil {
			log.Printf("[ANALYTICS] Cache write failed: %v", err)
		}
	}
	return overview, nil
}

// groupApplications counts applications grouped by one column.
func (s *AnalyticsService) groupApplications(ctx context.Context, column string) (map[string]int64, error) {
	var rows []groupCount
	err := s.db.WithContext(ctx).
		Model(&model.ATKTApplication{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group applications by %s: %w", column, err)
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

// Invalidate drops the cached overview. Called after bulk writes.
func (s *AnalyticsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, analyticsCacheKey); err != nil {
		log.Printf("[ANALYTICS] Cache invalidation failed: %v", err)
	}
}
