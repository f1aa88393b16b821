package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

// ActivityService keeps the audit trail shown in project and user feeds.
type ActivityService struct {
	db   *gorm.DB
	emit Emitter
}

func NewActivityService(db *gorm.DB, emit Emitter) *ActivityService {
	return &ActivityService{db: db, emit: orNop(emit)}
}

// Record persists the entry. Failures are logged and never fail the caller's
// mutation.
func (s *ActivityService) Record(ctx context.Context, entry models.ActivityLog) {
	if entry.Level == "" {
		entry.Level = models.LevelInfo
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("type", string(entry.Type)).Msg("record activity")
		return
	}
	if entry.ProjectID != nil && entry.IsVisible {
		s.emit.EmitToProject(*entry.ProjectID, "activity", entry)
	}
}

func (s *ActivityService) ListByProject(ctx context.Context, projectID string, limit int) ([]models.ActivityLog, error) {
	return s.list(ctx, s.db.Where("project_id = ?", projectID), limit)
}

func (s *ActivityService) ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	return s.list(ctx, s.db.Where("user_id = ?", userID), limit)
}

func (s *ActivityService) list(ctx context.Context, q *gorm.DB, limit int) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := q.WithContext(ctx).
		Where("is_visible = ?", true).
		Order("created_at desc").
		Limit(clampLimit(limit, 50, 200)).
		Find(&out).Error
	return out, err
}

func activity(t models.ActivityType, action string, userID string) models.ActivityLog {
	return models.ActivityLog{
		Type:      t,
		Level:     models.LevelInfo,
		Action:    action,
		UserID:    strPtr(userID),
		IsVisible: true,
	}
}
