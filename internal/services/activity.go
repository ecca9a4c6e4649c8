package services

import (
	"context"

	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/store"

	"go.uber.org/zap"
)

// ActivityService records connect outcomes in the activity log
type ActivityService struct {
	store *store.Store
}

func NewActivityService(s *store.Store) *ActivityService {
	return &ActivityService{store: s}
}

// Record appends an entry synchronously. A failed insert is logged and
// returned; it never changes the outcome of the flow being recorded.
func (s *ActivityService) Record(
	ctx context.Context,
	provider string,
	status models.ActivityStatus,
	message string,
) error {
	fields := []zap.Field{
		zap.String("provider", provider),
		zap.String("status", string(status)),
		zap.String("message", message),
	}
	if status == models.ActivityError {
		zap.L().Warn("oauth connect failed", fields...)
	} else {
		zap.L().Info("oauth connect succeeded", fields...)
	}

	err := s.store.CreateActivityLog(ctx, &models.ActivityLog{
		Provider: provider,
		Status:   status,
		Message:  message,
	})
	if err != nil {
		zap.L().Error("failed to write activity log", append(fields, zap.Error(err))...)
	}
	return err
}

// Recent returns the newest entries, at most store.RecentActivityLimit
func (s *ActivityService) Recent(
	ctx context.Context,
	filter store.ActivityLogFilter,
) ([]models.ActivityLog, error) {
	return s.store.RecentActivityLogs(ctx, filter)
}

// Count returns how many entries match the filter, beyond the Recent cap
func (s *ActivityService) Count(ctx context.Context, filter store.ActivityLogFilter) (int64, error) {
	return s.store.CountActivityLogs(ctx, filter)
}

// Clear removes every entry
func (s *ActivityService) Clear(ctx context.Context) error {
	return s.store.ClearActivityLogs(ctx)
}
