package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

type TaskService struct {
	db       *gorm.DB
	emit     Emitter
	activity *ActivityService
	notify   *NotificationService
	projects *ProjectService
	now      func() time.Time
}

func NewTaskService(db *gorm.DB, emit Emitter, activity *ActivityService, notify *NotificationService, projects *ProjectService) *TaskService {
	return &TaskService{db: db, emit: orNop(emit), activity: activity, notify: notify, projects: projects, now: time.Now}
}

func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// TaskView is a task with the values derived at read time.
type TaskView struct {
	models.Task
	IsOverdue     bool  `json:"is_overdue"`
	DaysRemaining int   `json:"days_remaining"`
	SubtaskCount  int64 `json:"subtask_count"`
}

type TaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.Priority
	Type           models.TaskType
	DueDate        *time.Time
	StartDate      *time.Time
	EstimatedHours int
	StoryPoints    int
	Tags           string
	AssigneeID     string
	Metadata       map[string]any
}

func (s *TaskService) Create(ctx context.Context, actor Actor, projectID string, in TaskInput) (*models.Task, error) {
	if _, err := s.projects.Authorize(ctx, actor, projectID, AccessContribute); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || !datesOrdered(in.StartDate, in.DueDate) {
		return nil, ErrInvalidInput
	}
	if in.AssigneeID != "" {
		if err := s.requireMember(ctx, projectID, in.AssigneeID); err != nil {
			return nil, err
		}
	}
	t := models.Task{
		Title:          title,
		Description:    in.Description,
		Status:         orDefault(in.Status, models.TaskTodo),
		Priority:       orDefault(in.Priority, models.PriorityMedium),
		Type:           orDefault(in.Type, models.TaskFeature),
		DueDate:        in.DueDate,
		StartDate:      in.StartDate,
		EstimatedHours: in.EstimatedHours,
		StoryPoints:    in.StoryPoints,
		Tags:           in.Tags,
		IsActive:       true,
		Metadata:       in.Metadata,
		ProjectID:      projectID,
		AssigneeID:     strPtr(in.AssigneeID),
		CreatedByID:    actor.UserID,
	}
	if t.Status == models.TaskCompleted {
		t.CompletedAt = timePtr(s.now())
	}
	order, err := s.nextOrder(ctx, projectID, t.Status)
	if err != nil {
		return nil, err
	}
	t.Order = order
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}

	s.record(ctx, actor, models.ActivityTaskCreate, "created task", &t, nil, nil)
	s.emit.EmitToProject(projectID, "task_created", t)
	if t.AssigneeID != nil && *t.AssigneeID != actor.UserID {
		s.notifyAssigned(ctx, actor, &t)
	}
	s.projects.RefreshProgress(ctx, projectID)
	return &t, nil
}

func (s *TaskService) Get(ctx context.Context, actor Actor, id string) (*TaskView, error) {
	t, err := s.load(ctx, actor, id, AccessView)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, *t)
}

type TaskFilter struct {
	Status     models.TaskStatus
	Priority   models.Priority
	Type       models.TaskType
	AssigneeID string
}

func (s *TaskService) ListByProject(ctx context.Context, actor Actor, projectID string, f TaskFilter) ([]TaskView, error) {
	if _, err := s.projects.Authorize(ctx, actor, projectID, AccessView); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("project_id = ? AND is_active = ?", projectID, true)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.AssigneeID != "" {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	var tasks []models.Task
	if err := q.Order("sort_order asc").Order("created_at asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return s.views(ctx, tasks)
}

// Backlog is the unscheduled todo work of a project, most urgent first.
func (s *TaskService) Backlog(ctx context.Context, actor Actor, projectID string) ([]TaskView, error) {
	if _, err := s.projects.Authorize(ctx, actor, projectID, AccessView); err != nil {
		return nil, err
	}
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ? AND status = ? AND start_date IS NULL", projectID, true, models.TaskTodo).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		if d := priorityRank(a.Priority) - priorityRank(b.Priority); d != 0 {
			return d
		}
		return a.Order - b.Order
	})
	return s.views(ctx, tasks)
}

// TaskUpdate holds optional changes; nil fields are left alone.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.Priority
	Type           *models.TaskType
	DueDate        *time.Time
	StartDate      *time.Time
	Progress       *float64
	EstimatedHours *int
	ActualHours    *int
	StoryPoints    *int
	Tags           *string
	Metadata       map[string]any
}

func (s *TaskService) Update(ctx context.Context, actor Actor, id string, in TaskUpdate) (*models.Task, error) {
	t, err := s.load(ctx, actor, id, AccessContribute)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		changes["title"] = title
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Type != nil {
		changes["type"] = *in.Type
	}
	start, due := t.StartDate, t.DueDate
	if in.StartDate != nil {
		start = in.StartDate
		changes["start_date"] = *in.StartDate
	}
	if in.DueDate != nil {
		due = in.DueDate
		changes["due_date"] = *in.DueDate
		changes["deadline_warned_at"] = nil
		changes["deadline_missed_at"] = nil
	}
	if !datesOrdered(start, due) {
		return nil, ErrInvalidInput
	}
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, ErrInvalidInput
		}
		changes["progress"] = *in.Progress
	}
	if in.EstimatedHours != nil {
		changes["estimated_hours"] = *in.EstimatedHours
	}
	if in.ActualHours != nil {
		changes["actual_hours"] = *in.ActualHours
	}
	if in.StoryPoints != nil {
		changes["story_points"] = *in.StoryPoints
	}
	if in.Tags != nil {
		changes["tags"] = *in.Tags
	}

	kind, action := models.ActivityTaskUpdate, "updated task"
	if in.Priority != nil && *in.Priority != t.Priority {
		changes["priority"] = *in.Priority
		kind, action = models.ActivityTaskPriorityChange, "changed task priority"
	}
	statusChanged := in.Status != nil && *in.Status != t.Status
	if statusChanged {
		if !validTaskStatus(*in.Status) {
			return nil, ErrInvalidInput
		}
		s.applyStatus(changes, t.Status, *in.Status)
		kind, action = models.ActivityTaskStatusChange, "changed task status"
	}
	if in.Metadata != nil {
		// serialized columns go through the struct path
		err := s.db.WithContext(ctx).Model(&models.Task{Base: models.Base{ID: t.ID}}).
			Select("metadata").Updates(&models.Task{Metadata: in.Metadata}).Error
		if err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return s.reload(ctx, t.ID)
		}
	}
	if len(changes) == 0 {
		return t, nil
	}
	old := map[string]any{"status": t.Status, "priority": t.Priority, "title": t.Title}
	updated, err := s.save(ctx, t, changes)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, kind, action, updated, old, changes)
	s.emit.EmitToProject(updated.ProjectID, "task_updated", updated)
	s.notifyChange(ctx, actor, updated)
	if statusChanged {
		s.projects.RefreshProgress(ctx, updated.ProjectID)
	}
	return updated, nil
}

// Move places a task on the board. Tasks at or below the target slot in the
// destination column shift down by one.
func (s *TaskService) Move(ctx context.Context, actor Actor, id string, status models.TaskStatus, order int) (*models.Task, error) {
	t, err := s.load(ctx, actor, id, AccessContribute)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = t.Status
	}
	if !validTaskStatus(status) || order < 0 {
		return nil, ErrInvalidInput
	}
	changes := map[string]any{"sort_order": order}
	statusChanged := status != t.Status
	if statusChanged {
		s.applyStatus(changes, t.Status, status)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Task{}).
			Where("project_id = ? AND status = ? AND is_active = ? AND sort_order >= ? AND id <> ?", t.ProjectID, status, true, order, t.ID).
			Update("sort_order", gorm.Expr("sort_order + ?", 1)).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Task{}).Where("id = ?", t.ID).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.reload(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	kind := models.ActivityTaskUpdate
	if statusChanged {
		kind = models.ActivityTaskStatusChange
	}
	s.record(ctx, actor, kind, "moved task", updated, map[string]any{"status": t.Status, "order": t.Order}, changes)
	s.emit.EmitToProject(updated.ProjectID, "task_updated", updated)
	if statusChanged {
		s.notifyChange(ctx, actor, updated)
		s.projects.RefreshProgress(ctx, updated.ProjectID)
	}
	return updated, nil
}

// Assign sets or, with an empty assigneeID, clears the assignee.
func (s *TaskService) Assign(ctx context.Context, actor Actor, id, assigneeID string) (*models.Task, error) {
	t, err := s.load(ctx, actor, id, AccessContribute)
	if err != nil {
		return nil, err
	}
	if assigneeID != "" {
		if err := s.requireMember(ctx, t.ProjectID, assigneeID); err != nil {
			return nil, err
		}
	}
	var old any
	if t.AssigneeID != nil {
		old = *t.AssigneeID
	}
	changes := map[string]any{"assignee_id": strPtr(assigneeID)}
	updated, err := s.save(ctx, t, changes)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, models.ActivityTaskAssign, "assigned task", updated,
		map[string]any{"assignee_id": old}, map[string]any{"assignee_id": assigneeID})
	s.emit.EmitToProject(updated.ProjectID, "task_updated", updated)
	if assigneeID != "" && assigneeID != actor.UserID {
		s.notifyAssigned(ctx, actor, updated)
	}
	return updated, nil
}

// Delete deactivates the task. Its creator or a project manager may do so.
func (s *TaskService) Delete(ctx context.Context, actor Actor, id string) error {
	t, err := s.load(ctx, actor, id, AccessContribute)
	if err != nil {
		return err
	}
	if t.CreatedByID != actor.UserID {
		if _, err := s.projects.Authorize(ctx, actor, t.ProjectID, AccessManage); err != nil {
			return err
		}
	}
	if err := s.db.WithContext(ctx).Model(t).Update("is_active", false).Error; err != nil {
		return err
	}
	s.record(ctx, actor, models.ActivityTaskDelete, "deleted task", t, nil, nil)
	s.emit.EmitToProject(t.ProjectID, "task_deleted", payload{"id": t.ID, "project_id": t.ProjectID})
	s.projects.RefreshProgress(ctx, t.ProjectID)
	return nil
}

type SubtaskInput struct {
	Title          string
	Description    string
	Priority       models.Priority
	DueDate        *time.Time
	EstimatedHours int
}

func (s *TaskService) CreateSubtask(ctx context.Context, actor Actor, taskID string, in SubtaskInput) (*models.Subtask, error) {
	t, err := s.load(ctx, actor, taskID, AccessContribute)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidInput
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subtask{}).Where("parent_task_id = ?", t.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	st := models.Subtask{
		Title:          title,
		Description:    in.Description,
		Status:         models.TaskTodo,
		Priority:       orDefault(in.Priority, models.PriorityMedium),
		DueDate:        in.DueDate,
		EstimatedHours: in.EstimatedHours,
		Order:          int(count),
		IsActive:       true,
		ParentTaskID:   t.ID,
	}
	if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, err
	}
	s.emit.EmitToProject(t.ProjectID, "task_updated", payload{"task_id": t.ID, "subtask": st})
	return &st, nil
}

func (s *TaskService) ListSubtasks(ctx context.Context, actor Actor, taskID string) ([]models.Subtask, error) {
	if _, err := s.load(ctx, actor, taskID, AccessView); err != nil {
		return nil, err
	}
	var out []models.Subtask
	err := s.db.WithContext(ctx).
		Where("parent_task_id = ? AND is_active = ?", taskID, true).
		Order("sort_order asc").
		Find(&out).Error
	return out, err
}

type SubtaskUpdate struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.Priority
	DueDate        *time.Time
	EstimatedHours *int
	ActualHours    *int
	Order          *int
}

func (s *TaskService) UpdateSubtask(ctx context.Context, actor Actor, id string, in SubtaskUpdate) (*models.Subtask, error) {
	st, t, err := s.loadSubtask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		changes["title"] = title
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Status != nil {
		if !validTaskStatus(*in.Status) {
			return nil, ErrInvalidInput
		}
		changes["status"] = *in.Status
	}
	if in.Priority != nil {
		changes["priority"] = *in.Priority
	}
	if in.DueDate != nil {
		changes["due_date"] = *in.DueDate
	}
	if in.EstimatedHours != nil {
		changes["estimated_hours"] = *in.EstimatedHours
	}
	if in.ActualHours != nil {
		changes["actual_hours"] = *in.ActualHours
	}
	if in.Order != nil {
		changes["sort_order"] = *in.Order
	}
	if len(changes) == 0 {
		return st, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.Subtask{}).Where("id = ?", st.ID).Updates(changes).Error; err != nil {
		return nil, err
	}
	var updated models.Subtask
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", st.ID).Error; err != nil {
		return nil, notFound(err)
	}
	s.emit.EmitToProject(t.ProjectID, "task_updated", payload{"task_id": t.ID, "subtask": updated})
	return &updated, nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, actor Actor, id string) error {
	st, t, err := s.loadSubtask(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(st).Update("is_active", false).Error; err != nil {
		return err
	}
	s.emit.EmitToProject(t.ProjectID, "task_updated", payload{"task_id": t.ID, "deleted_subtask_id": st.ID})
	return nil
}

// SweepDeadlines notifies assignees of tasks due within window or already
// late. Each kind of notice goes out once per due date.
func (s *TaskService) SweepDeadlines(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	open := s.db.WithContext(ctx).
		Where("is_active = ? AND assignee_id IS NOT NULL AND due_date IS NOT NULL", true).
		Where("status NOT IN ?", []models.TaskStatus{models.TaskCompleted, models.TaskCancelled})

	var late []models.Task
	if err := open.Session(&gorm.Session{}).Where("due_date < ? AND deadline_missed_at IS NULL", now).Find(&late).Error; err != nil {
		return 0, err
	}
	var soon []models.Task
	err := open.Session(&gorm.Session{}).
		Where("due_date >= ? AND due_date <= ? AND deadline_warned_at IS NULL", now, now.Add(window)).
		Find(&soon).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, t := range late {
		t := t
		s.notify.Notify(ctx, models.Notification{
			Title:     "Task overdue",
			Message:   t.Title + " is past its due date",
			Type:      models.NotifyDeadlinePassed,
			Priority:  models.PriorityHigh,
			UserID:    *t.AssigneeID,
			ProjectID: &t.ProjectID,
			TaskID:    &t.ID,
		})
		if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", t.ID).
			Updates(map[string]any{"deadline_missed_at": now, "deadline_warned_at": now}).Error; err != nil {
			log.Error().Err(err).Str("task_id", t.ID).Msg("mark deadline missed")
			continue
		}
		sent++
	}
	for _, t := range soon {
		t := t
		s.notify.Notify(ctx, models.Notification{
			Title:     "Task due soon",
			Message:   t.Title + " is due " + t.DueDate.Format(time.RFC1123),
			Type:      models.NotifyDeadlineApproaching,
			UserID:    *t.AssigneeID,
			ProjectID: &t.ProjectID,
			TaskID:    &t.ID,
		})
		if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", t.ID).
			Update("deadline_warned_at", now).Error; err != nil {
			log.Error().Err(err).Str("task_id", t.ID).Msg("mark deadline warned")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *TaskService) load(ctx context.Context, actor Actor, id string, need Access) (*models.Task, error) {
	t, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrNotFound
	}
	if _, err := s.projects.Authorize(ctx, actor, t.ProjectID, need); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) loadSubtask(ctx context.Context, actor Actor, id string) (*models.Subtask, *models.Task, error) {
	var st models.Subtask
	if err := s.db.WithContext(ctx).First(&st, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, nil, notFound(err)
	}
	t, err := s.load(ctx, actor, st.ParentTaskID, AccessContribute)
	if err != nil {
		return nil, nil, err
	}
	return &st, t, nil
}

func (s *TaskService) reload(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *TaskService) save(ctx context.Context, t *models.Task, changes map[string]any) (*models.Task, error) {
	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", t.ID).Updates(changes).Error; err != nil {
		return nil, err
	}
	return s.reload(ctx, t.ID)
}

// applyStatus stamps completed_at on entering completed and clears it on
// leaving.
func (s *TaskService) applyStatus(changes map[string]any, from, to models.TaskStatus) {
	changes["status"] = to
	switch {
	case to == models.TaskCompleted:
		changes["completed_at"] = s.now()
		changes["progress"] = 100
	case from == models.TaskCompleted:
		changes["completed_at"] = nil
	}
}

func (s *TaskService) nextOrder(ctx context.Context, projectID string, status models.TaskStatus) (int, error) {
	var top int
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ? AND status = ? AND is_active = ?", projectID, status, true).
		Select("COALESCE(MAX(sort_order), -1)").
		Row().Scan(&top)
	if err != nil {
		return 0, err
	}
	return top + 1, nil
}

func (s *TaskService) requireMember(ctx context.Context, projectID, userID string) error {
	m, err := s.projects.membership(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrInvalidInput
	}
	return nil
}

func (s *TaskService) view(ctx context.Context, t models.Task) (*TaskView, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Subtask{}).
		Where("parent_task_id = ? AND is_active = ?", t.ID, true).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &TaskView{
		Task:          t,
		IsOverdue:     models.TaskIsOverdue(t, now),
		DaysRemaining: models.TaskDaysRemaining(t, now),
		SubtaskCount:  n,
	}, nil
}

func (s *TaskService) views(ctx context.Context, tasks []models.Task) ([]TaskView, error) {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		v, err := s.view(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *TaskService) record(ctx context.Context, actor Actor, kind models.ActivityType, action string, t *models.Task, old, changes map[string]any) {
	entry := activity(kind, action, actor.UserID)
	entry.ProjectID = &t.ProjectID
	entry.TaskID = &t.ID
	entry.TargetID, entry.TargetType = t.ID, "task"
	entry.Description = t.Title
	entry.OldValues, entry.NewValues = old, changes
	s.activity.Record(ctx, entry)
}

func (s *TaskService) notifyAssigned(ctx context.Context, actor Actor, t *models.Task) {
	s.notify.Notify(ctx, models.Notification{
		Title:     "Task assigned",
		Message:   t.Title,
		Type:      models.NotifyTaskAssigned,
		Priority:  t.Priority,
		UserID:    *t.AssigneeID,
		ProjectID: &t.ProjectID,
		TaskID:    &t.ID,
		SenderID:  strPtr(actor.UserID),
	})
}

// notifyChange tells the assignee about changes made by someone else, and the
// creator when the task is completed.
func (s *TaskService) notifyChange(ctx context.Context, actor Actor, t *models.Task) {
	if t.AssigneeID != nil && *t.AssigneeID != actor.UserID {
		s.notify.Notify(ctx, models.Notification{
			Title:     "Task updated",
			Message:   t.Title,
			Type:      models.NotifyTaskUpdated,
			UserID:    *t.AssigneeID,
			ProjectID: &t.ProjectID,
			TaskID:    &t.ID,
			SenderID:  strPtr(actor.UserID),
		})
	}
	if t.Status == models.TaskCompleted && t.CreatedByID != actor.UserID {
		s.notify.Notify(ctx, models.Notification{
			Title:     "Task completed",
			Message:   t.Title,
			Type:      models.NotifyTaskCompleted,
			UserID:    t.CreatedByID,
			ProjectID: &t.ProjectID,
			TaskID:    &t.ID,
			SenderID:  strPtr(actor.UserID),
		})
	}
}

func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityUrgent:
		return 0
	case models.PriorityHigh:
		return 1
	case models.PriorityMedium:
		return 2
	default:
		return 3
	}
}

func validTaskStatus(st models.TaskStatus) bool {
	switch st {
	case models.TaskTodo, models.TaskInProgress, models.TaskReview, models.TaskCompleted, models.TaskCancelled:
		return true
	}
	return false
}
