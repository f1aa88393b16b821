package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

type TaskType string

const (
	TaskFeature       TaskType = "feature"
	TaskBug           TaskType = "bug"
	TaskImprovement   TaskType = "improvement"
	TaskDocumentation TaskType = "documentation"
	TaskTesting       TaskType = "testing"
	TaskOther         TaskType = "other"
)

type Task struct {
	Base
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description,omitempty"`
	Status         TaskStatus     `gorm:"size:32;not null;index" json:"status"`
	Priority       Priority       `gorm:"size:16;not null" json:"priority"`
	Type           TaskType       `gorm:"size:32;not null" json:"type"`
	DueDate        *time.Time     `gorm:"index" json:"due_date,omitempty"`
	StartDate      *time.Time     `json:"start_date,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Progress       float64        `json:"progress"`
	EstimatedHours int            `json:"estimated_hours"`
	ActualHours    int            `json:"actual_hours"`
	StoryPoints    int            `json:"story_points"`
	Tags           string         `json:"tags,omitempty"`
	Order          int            `gorm:"column:sort_order" json:"order"`
	IsActive       bool           `gorm:"index" json:"is_active"`
	Metadata       map[string]any `gorm:"type:text;serializer:json" json:"metadata,omitempty"`
	ProjectID      string         `gorm:"size:36;not null;index" json:"project_id"`
	AssigneeID     *string        `gorm:"size:36;index" json:"assignee_id,omitempty"`
	CreatedByID    string         `gorm:"size:36;not null" json:"created_by_id"`

	DeadlineWarnedAt *time.Time `json:"-"`
	DeadlineMissedAt *time.Time `json:"-"`
}

type Subtask struct {
	Base
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	Status         TaskStatus `gorm:"size:32;not null" json:"status"`
	Priority       Priority   `gorm:"size:16;not null" json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours int        `json:"estimated_hours"`
	ActualHours    int        `json:"actual_hours"`
	Order          int        `gorm:"column:sort_order" json:"order"`
	IsActive       bool       `json:"is_active"`
	ParentTaskID   string     `gorm:"size:36;not null;index" json:"parent_task_id"`
}
