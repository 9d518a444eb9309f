package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/sgkm-college/atkt-backend/model"
)

// Upload batches that stopped reporting progress for this long are treated as
// abandoned and closed out.
const staleUploadAge = 2 * time.Hour

// CleanupStaleUploads marks upload batches that never completed and have not
// been touched recently. The Redis state has its own TTL; this keeps the
// durable rows honest.
func (m *CronManager) CleanupStaleUploads() {
	jobName := "cleanup_stale_uploads"
	cutoff := time.Now().Add(-staleUploadAge)

	result := m.db.Model(&model.UploadBatch{}).
		Where("completed = ? AND updated_at < ?", false, cutoff).
		Update("completed", true)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to close stale uploads: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Closed %d stale upload batches", result.RowsAffected))
}

// PurgeExpiredBlacklistTokens removes blacklist entries whose tokens have
// expired on their own. An expired token is rejected by signature
// verification anyway, so the row is dead weight.
func (m *CronManager) PurgeExpiredBlacklistTokens() {
	jobName := "purge_token_blacklist"

	result := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge blacklist: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d expired tokens", result.RowsAffected))
}

// CleanupOldData prunes aged housekeeping rows: cron logs older than 30 days,
// audit logs older than 180 days and completed upload batches older than
// 90 days. Applications and student profiles are never touched.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"
	now := time.Now()

	targets := []struct {
		label  string
		cutoff time.Time
		query  func(cutoff time.Time) (int64, error)
	}{
		{
			label:  "cron logs",
			cutoff: now.AddDate(0, 0, -30),
			query: func(cutoff time.Time) (int64, error) {
				result := m.db.Unscoped().Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
				return result.RowsAffected, result.Error
			},
		},
		{
			label:  "audit logs",
			cutoff: now.AddDate(0, 0, -180),
			query: func(cutoff time.Time) (int64, error) {
				result := m.db.Unscoped().Where("created_at < ?", cutoff).Delete(&model.AdminAuditLog{})
				return result.RowsAffected, result.Error
			},
		},
		{
			label:  "upload batches",
			cutoff: now.AddDate(0, 0, -90),
			query: func(cutoff time.Time) (int64, error) {
				result := m.db.Where("completed = ? AND updated_at < ?", true, cutoff).Delete(&model.UploadBatch{})
				return result.RowsAffected, result.Error
			},
		},
	}

	total := int64(0)
	for _, t := range targets {
		removed, err := t.query(t.cutoff)
		if err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to prune %s: %w", t.label, err))
			return
		}
		if removed > 0 {
			log.Printf("[CRON] Pruned %d %s", removed, t.label)
		}
		total += removed
	}

	m.logJobComplete(jobName, fmt.Sprintf("Pruned %d rows", total))
}
