package service

import (
	"context"
	"strings"

	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewUserService(db *gorm.DB, activity *ActivityService) *UserService {
	return &UserService{db: db, activity: activity}
}

type UserFilter struct {
	Status models.UserStatus
	Role   models.UserRole
	Search string
	Limit  int
	Offset int
}

func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	var out []models.User
	err := q.Order("created_at asc").
		Limit(clampLimit(f.Limit, 50, 200)).
		Offset(max(f.Offset, 0)).
		Find(&out).Error
	return out, err
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ProfileUpdate holds the self-editable fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Avatar    *string
	Phone     *string
	Bio       *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	setIf(changes, "first_name", in.FirstName)
	setIf(changes, "last_name", in.LastName)
	setIf(changes, "avatar", in.Avatar)
	setIf(changes, "phone", in.Phone)
	setIf(changes, "bio", in.Bio)
	if len(changes) == 0 {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(changes).Error; err != nil {
		return nil, err
	}
	entry := activity(models.ActivityProfileUpdate, "updated profile", userID)
	entry.NewValues = changes
	s.activity.Record(ctx, entry)
	return s.Get(ctx, userID)
}

// SetStatus is how accounts are disabled; users are never hard deleted.
func (s *UserService) SetStatus(ctx context.Context, actor Actor, id string, status models.UserStatus) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	switch status {
	case models.UserActive, models.UserInactive, models.UserSuspended:
	default:
		return nil, ErrInvalidInput
	}
	if actor.UserID == id && status != models.UserActive {
		return nil, ErrInvalidInput
	}
	return s.update(ctx, id, "status", status)
}

func (s *UserService) SetRole(ctx context.Context, actor Actor, id string, role models.UserRole) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	switch role {
	case models.RoleAdmin, models.RoleProjectManager, models.RoleTeamMember, models.RoleViewer:
	default:
		return nil, ErrInvalidInput
	}
	return s.update(ctx, id, "role", role)
}

func (s *UserService) update(ctx context.Context, id, column string, value any) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func setIf(changes map[string]any, column string, v *string) {
	if v != nil {
		changes[column] = strings.TrimSpace(*v)
	}
}
