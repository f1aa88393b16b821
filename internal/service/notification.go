package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

type NotificationService struct {
	db   *gorm.DB
	emit Emitter
	now  func() time.Time
}

func NewNotificationService(db *gorm.DB, emit Emitter) *NotificationService {
	return &NotificationService{db: db, emit: orNop(emit), now: time.Now}
}

// Notify stores an in-app notification and pushes it to the recipient's
// user channel. Like activity logging it never fails the caller.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) *models.Notification {
	if n.UserID == "" {
		return nil
	}
	now := s.now()
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
	if n.DeliveryMethod == "" {
		n.DeliveryMethod = models.DeliveryInApp
	}
	n.Status = models.NotificationSent
	n.SentAt = &now
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Error().Err(err).Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("store notification")
		return nil
	}
	s.emit.EmitToUser(n.UserID, "notification", n)
	return &n
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	err := q.Order("created_at desc").Limit(clampLimit(limit, 50, 200)).Find(&out).Error
	return out, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead only touches notifications owned by userID.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, notFound(err)
	}
	if n.IsRead {
		return &n, nil
	}
	now := s.now()
	err := s.db.WithContext(ctx).Model(&n).Updates(map[string]any{
		"is_read": true,
		"read_at": now,
		"status":  models.NotificationRead,
	}).Error
	if err != nil {
		return nil, err
	}
	n.IsRead, n.ReadAt, n.Status = true, &now, models.NotificationRead
	return &n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": s.now(),
			"status":  models.NotificationRead,
		})
	return res.RowsAffected, res.Error
}
