package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Access is the capability a caller needs on a project.
type Access int

const (
	AccessView Access = iota
	AccessContribute
	AccessManage
	AccessOwn
)

type ProjectService struct {
	db       *gorm.DB
	emit     Emitter
	activity *ActivityService
	notify   *NotificationService
	now      func() time.Time
}

func NewProjectService(db *gorm.DB, emit Emitter, activity *ActivityService, notify *NotificationService) *ProjectService {
	return &ProjectService{db: db, emit: orNop(emit), activity: activity, notify: notify, now: time.Now}
}

func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

// Authorize loads an active project and checks the caller's access to it.
// Projects the caller cannot even see are reported as not found.
func (s *ProjectService) Authorize(ctx context.Context, actor Actor, projectID string, need Access) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).First(&p, "id = ? AND is_active = ?", projectID, true).Error; err != nil {
		return nil, notFound(err)
	}
	if actor.IsAdmin() {
		return &p, nil
	}
	m, err := s.membership(ctx, projectID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		if need == AccessView && p.IsPublic {
			return &p, nil
		}
		if p.IsPublic {
			return nil, ErrForbidden
		}
		return nil, ErrNotFound
	}
	ok := false
	switch need {
	case AccessView:
		ok = true
	case AccessContribute:
		ok = m.Role != models.MemberViewer
	case AccessManage:
		ok = models.MemberCanEdit(*m)
	case AccessOwn:
		ok = models.MemberCanDelete(*m)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return &p, nil
}

func (s *ProjectService) membership(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := s.db.WithContext(ctx).
		First(&m, "project_id = ? AND user_id = ? AND is_active = ?", projectID, userID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type ProjectInput struct {
	Name        string
	Description string
	Status      models.ProjectStatus
	Priority    models.Priority
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	ClientName  string
	ClientEmail string
	ClientPhone string
	IsPublic    bool
}

// Create makes the caller the owner and opens the project's chat room in the
// same transaction.
func (s *ProjectService) Create(ctx context.Context, actor Actor, in ProjectInput) (*models.Project, error) {
	if actor.Role == models.RoleViewer {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || !datesOrdered(in.StartDate, in.EndDate) {
		return nil, ErrInvalidInput
	}
	p := models.Project{
		Name:        name,
		Description: in.Description,
		Status:      orDefault(in.Status, models.ProjectPlanned),
		Priority:    orDefault(in.Priority, models.PriorityMedium),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Budget:      in.Budget,
		ClientName:  in.ClientName,
		ClientEmail: in.ClientEmail,
		ClientPhone: in.ClientPhone,
		IsPublic:    in.IsPublic,
		IsActive:    true,
		OwnerID:     actor.UserID,
	}
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		owner := models.ProjectMember{
			ProjectID: p.ID,
			UserID:    actor.UserID,
			Role:      models.MemberOwner,
			JoinedAt:  &now,
			IsActive:  true,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		room := models.ChatRoom{
			Name:        p.Name,
			Type:        models.RoomProject,
			ProjectID:   &p.ID,
			IsActive:    true,
			IsPrivate:   !p.IsPublic,
			CreatedByID: actor.UserID,
		}
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return tx.Create(&models.ChatRoomMember{RoomID: room.ID, UserID: actor.UserID, JoinedAt: now}).Error
	})
	if err != nil {
		return nil, err
	}

	entry := activity(models.ActivityProjectCreate, "created project", actor.UserID)
	entry.ProjectID = &p.ID
	entry.TargetID, entry.TargetType = p.ID, "project"
	s.activity.Record(ctx, entry)
	return &p, nil
}

// List returns active projects visible to the caller, newest first.
func (s *ProjectService) List(ctx context.Context, actor Actor, status models.ProjectStatus) ([]models.Project, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if !actor.IsAdmin() {
		member := s.db.Model(&models.ProjectMember{}).Select("project_id").
			Where("user_id = ? AND is_active = ?", actor.UserID, true)
		q = q.Where("is_public = ? OR id IN (?)", true, member)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Project
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *ProjectService) Get(ctx context.Context, actor Actor, id string) (*models.Project, error) {
	return s.Authorize(ctx, actor, id, AccessView)
}

// ProjectUpdate holds optional changes; nil fields are left alone.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	Priority    *models.Priority
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	ActualCost  *float64
	ClientName  *string
	ClientEmail *string
	ClientPhone *string
	IsPublic    *bool
}

func (s *ProjectService) Update(ctx context.Context, actor Actor, id string, in ProjectUpdate) (*models.Project, error) {
	p, err := s.Authorize(ctx, actor, id, AccessManage)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		changes["name"] = name
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Priority != nil {
		changes["priority"] = *in.Priority
	}
	start, end := p.StartDate, p.EndDate
	if in.StartDate != nil {
		start = in.StartDate
		changes["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		end = in.EndDate
		changes["end_date"] = *in.EndDate
	}
	if !datesOrdered(start, end) {
		return nil, ErrInvalidInput
	}
	if in.Budget != nil {
		changes["budget"] = *in.Budget
	}
	if in.ActualCost != nil {
		changes["actual_cost"] = *in.ActualCost
	}
	if in.ClientName != nil {
		changes["client_name"] = *in.ClientName
	}
	if in.ClientEmail != nil {
		changes["client_email"] = *in.ClientEmail
	}
	if in.ClientPhone != nil {
		changes["client_phone"] = *in.ClientPhone
	}
	if in.IsPublic != nil {
		changes["is_public"] = *in.IsPublic
	}
	statusChanged := in.Status != nil && *in.Status != p.Status
	if statusChanged {
		changes["status"] = *in.Status
		if *in.Status == models.ProjectCompleted {
			changes["actual_end_date"] = s.now()
		} else if p.Status == models.ProjectCompleted {
			changes["actual_end_date"] = nil
		}
	}
	if len(changes) == 0 {
		return p, nil
	}
	old := map[string]any{"status": p.Status, "name": p.Name}
	if err := s.db.WithContext(ctx).Model(p).Updates(changes).Error; err != nil {
		return nil, err
	}
	updated, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}

	kind, action := models.ActivityProjectUpdate, "updated project"
	if statusChanged {
		kind, action = models.ActivityProjectStatus, "changed project status"
	}
	entry := activity(kind, action, actor.UserID)
	entry.ProjectID = &updated.ID
	entry.TargetID, entry.TargetType = updated.ID, "project"
	entry.OldValues, entry.NewValues = old, changes
	s.activity.Record(ctx, entry)
	s.emit.EmitToProject(updated.ID, "project_updated", updated)
	return updated, nil
}

// Delete deactivates the project; rows are kept for history.
func (s *ProjectService) Delete(ctx context.Context, actor Actor, id string) error {
	p, err := s.Authorize(ctx, actor, id, AccessOwn)
	if err != nil {
		return err
	}
	rooms, err := s.projectRooms(ctx, p.ID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(p).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatRoom{}).
			Where("project_id = ? AND type = ?", p.ID, models.RoomProject).
			Updates(map[string]any{"is_active": false, "is_archived": true}).Error
	})
	if err != nil {
		return err
	}
	entry := activity(models.ActivityProjectDelete, "deleted project", actor.UserID)
	entry.ProjectID = &p.ID
	entry.TargetID, entry.TargetType = p.ID, "project"
	s.activity.Record(ctx, entry)
	p.IsActive = false
	s.emit.EmitToProject(p.ID, "project_updated", p)
	s.emit.EvictFromProject(p.ID, "")
	for _, id := range rooms {
		s.emit.EvictFromRoom(id, "")
	}
	return nil
}

// projectRooms lists the ids of the chat rooms that follow project
// membership.
func (s *ProjectService) projectRooms(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("project_id = ? AND type = ?", projectID, models.RoomProject).
		Pluck("id", &ids).Error
	return ids, err
}

// MemberDTO is a membership joined with the member's public profile.
type MemberDTO struct {
	models.ProjectMember
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar,omitempty"`
}

func (s *ProjectService) ListMembers(ctx context.Context, actor Actor, projectID string) ([]MemberDTO, error) {
	if _, err := s.Authorize(ctx, actor, projectID, AccessView); err != nil {
		return nil, err
	}
	var members []models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("joined_at asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	var users []models.User
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		u := byID[m.UserID]
		out = append(out, MemberDTO{ProjectMember: m, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Avatar: u.Avatar})
	}
	return out, nil
}

// AddMember (re)activates a membership and joins the user to the project room.
func (s *ProjectService) AddMember(ctx context.Context, actor Actor, projectID, userID string, role models.MemberRole) (*models.ProjectMember, error) {
	p, err := s.Authorize(ctx, actor, projectID, AccessManage)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = models.MemberMember
	}
	if !assignableRole(role) {
		return nil, ErrInvalidInput
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ? AND status = ?", userID, models.UserActive).Error; err != nil {
		return nil, notFound(err)
	}

	now := s.now()
	var m models.ProjectMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			m = models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role, JoinedAt: &now, IsActive: true}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case m.IsActive:
			return ErrDuplicate
		default:
			err := tx.Model(&m).Updates(map[string]any{
				"role": role, "joined_at": now, "left_at": nil, "is_active": true,
			}).Error
			if err != nil {
				return err
			}
			m.Role, m.JoinedAt, m.LeftAt, m.IsActive = role, &now, nil, true
		}
		return joinProjectRoom(tx, projectID, userID, now)
	})
	if err != nil {
		return nil, err
	}

	entry := activity(models.ActivityMemberAdd, "added member", actor.UserID)
	entry.ProjectID = &p.ID
	entry.TargetID, entry.TargetType = userID, "user"
	s.activity.Record(ctx, entry)
	s.notify.Notify(ctx, models.Notification{
		Title:     "Added to project",
		Message:   "You were added to " + p.Name,
		Type:      models.NotifyProjectInvite,
		UserID:    userID,
		ProjectID: &p.ID,
		SenderID:  strPtr(actor.UserID),
	})
	s.emit.EmitToProject(p.ID, "member_added", m)
	return &m, nil
}

// RemoveMember ends a membership. Members may remove themselves; the owner
// cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, actor Actor, projectID, userID string) error {
	need := AccessManage
	if actor.UserID == userID {
		need = AccessView
	}
	p, err := s.Authorize(ctx, actor, projectID, need)
	if err != nil {
		return err
	}
	m, err := s.membership(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if m.Role == models.MemberOwner {
		return ErrInvalidInput
	}
	rooms, err := s.projectRooms(ctx, projectID)
	if err != nil {
		return err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(m).Updates(map[string]any{"is_active": false, "left_at": now}).Error
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			return nil
		}
		return tx.Where("user_id = ? AND room_id IN ?", userID, rooms).Delete(&models.ChatRoomMember{}).Error
	})
	if err != nil {
		return err
	}
	s.emit.EvictFromProject(projectID, userID)
	for _, id := range rooms {
		s.emit.EvictFromRoom(id, userID)
	}

	entry := activity(models.ActivityMemberRemove, "removed member", actor.UserID)
	entry.ProjectID = &p.ID
	entry.TargetID, entry.TargetType = userID, "user"
	s.activity.Record(ctx, entry)
	s.emit.EmitToProject(p.ID, "member_removed", payload{"project_id": p.ID, "user_id": userID})
	return nil
}

func (s *ProjectService) ChangeMemberRole(ctx context.Context, actor Actor, projectID, userID string, role models.MemberRole) (*models.ProjectMember, error) {
	p, err := s.Authorize(ctx, actor, projectID, AccessManage)
	if err != nil {
		return nil, err
	}
	if !assignableRole(role) {
		return nil, ErrInvalidInput
	}
	m, err := s.membership(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if m.Role == models.MemberOwner {
		return nil, ErrInvalidInput
	}
	old := m.Role
	if err := s.db.WithContext(ctx).Model(m).Update("role", role).Error; err != nil {
		return nil, err
	}
	m.Role = role

	entry := activity(models.ActivityMemberRoleChange, "changed member role", actor.UserID)
	entry.ProjectID = &p.ID
	entry.TargetID, entry.TargetType = userID, "user"
	entry.OldValues = map[string]any{"role": old}
	entry.NewValues = map[string]any{"role": role}
	s.activity.Record(ctx, entry)
	s.emit.EmitToProject(p.ID, "project_updated", payload{"project_id": p.ID, "member": m})
	return m, nil
}

type ProjectOverview struct {
	Project       models.Project            `json:"project"`
	TaskCounts    map[models.TaskStatus]int `json:"task_counts"`
	ByPriority    map[models.Priority]int   `json:"by_priority"`
	TotalTasks    int                       `json:"total_tasks"`
	OverdueTasks  int                       `json:"overdue_tasks"`
	Completion    float64                   `json:"completion"`
	DaysRemaining int                       `json:"days_remaining"`
	IsOverdue     bool                      `json:"is_overdue"`
	MemberCount   int64                     `json:"member_count"`
}

func (s *ProjectService) Overview(ctx context.Context, actor Actor, projectID string) (*ProjectOverview, error) {
	p, err := s.Authorize(ctx, actor, projectID, AccessView)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Where("project_id = ? AND is_active = ?", projectID, true).Find(&tasks).Error; err != nil {
		return nil, err
	}
	var members int64
	err = s.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Count(&members).Error
	if err != nil {
		return nil, err
	}

	now := s.now()
	ov := &ProjectOverview{
		Project:       *p,
		TaskCounts:    map[models.TaskStatus]int{},
		ByPriority:    map[models.Priority]int{},
		TotalTasks:    len(tasks),
		Completion:    models.ProgressFromTasks(tasks),
		DaysRemaining: models.ProjectDaysRemaining(*p, now),
		IsOverdue:     models.ProjectIsOverdue(*p, now),
		MemberCount:   members,
	}
	for _, t := range tasks {
		ov.TaskCounts[t.Status]++
		ov.ByPriority[t.Priority]++
		if models.TaskIsOverdue(t, now) && t.Status != models.TaskCancelled {
			ov.OverdueTasks++
		}
	}
	return ov, nil
}

// RefreshProgress stores the completion share of the project's tasks.
func (s *ProjectService) RefreshProgress(ctx context.Context, projectID string) {
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Where("project_id = ? AND is_active = ?", projectID, true).Find(&tasks).Error; err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("load tasks for progress")
		return
	}
	err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).
		Update("progress", models.ProgressFromTasks(tasks)).Error
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("refresh project progress")
	}
}

func (s *ProjectService) reload(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func joinProjectRoom(tx *gorm.DB, projectID, userID string, now time.Time) error {
	var room models.ChatRoom
	err := tx.Where("project_id = ? AND type = ?", projectID, models.RoomProject).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ChatRoomMember{RoomID: room.ID, UserID: userID, JoinedAt: now}).Error
}

func assignableRole(r models.MemberRole) bool {
	return r == models.MemberManager || r == models.MemberMember || r == models.MemberViewer
}

func datesOrdered(start, end *time.Time) bool {
	return start == nil || end == nil || !end.Before(*start)
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

// payload is a loose JSON object for small event bodies.
type payload = map[string]any
