package store

import (
	"context"
	"time"

	"github.com/go-authgate/connectgate/internal/models"

	"gorm.io/gorm"
)

// RecentActivityLimit caps how many log entries a read returns
const RecentActivityLimit = 50

// ActivityLogFilter narrows an activity log read
type ActivityLogFilter struct {
	Provider string                // Filter by provider id
	Status   models.ActivityStatus // Filter by SUCCESS/ERROR
}

// CreateActivityLog appends one entry
func (s *Store) CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// RecentActivityLogs returns the newest entries first, capped at RecentActivityLimit
func (s *Store) RecentActivityLogs(
	ctx context.Context,
	filter ActivityLogFilter,
) ([]models.ActivityLog, error) {
	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var logs []models.ActivityLog
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(RecentActivityLimit).
		Find(&logs).Error
	return logs, err
}

// CountActivityLogs counts entries matching the filter
func (s *Store) CountActivityLogs(ctx context.Context, filter ActivityLogFilter) (int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// ClearActivityLogs deletes every entry
func (s *Store) ClearActivityLogs(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ActivityLog{}).Error
}
