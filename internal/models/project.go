package models

import "time"

type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "planned"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Project struct {
	Base
	Name          string        `gorm:"size:200;not null" json:"name"`
	Description   string        `gorm:"type:text" json:"description,omitempty"`
	Status        ProjectStatus `gorm:"size:32;not null;index" json:"status"`
	Priority      Priority      `gorm:"size:16;not null" json:"priority"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	ActualEndDate *time.Time    `json:"actual_end_date,omitempty"`
	Progress      float64       `json:"progress"`
	Budget        *float64      `json:"budget,omitempty"`
	ActualCost    *float64      `json:"actual_cost,omitempty"`
	ClientName    string        `json:"client_name,omitempty"`
	ClientEmail   string        `json:"client_email,omitempty"`
	ClientPhone   string        `json:"client_phone,omitempty"`
	IsPublic      bool          `json:"is_public"`
	IsActive      bool          `gorm:"index" json:"is_active"`
	OwnerID       string        `gorm:"size:36;index;not null" json:"owner_id"`
}

type MemberRole string

const (
	MemberOwner   MemberRole = "owner"
	MemberManager MemberRole = "manager"
	MemberMember  MemberRole = "member"
	MemberViewer  MemberRole = "viewer"
)

type ProjectMember struct {
	Base
	ProjectID string     `gorm:"size:36;not null;uniqueIndex:idx_project_member" json:"project_id"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex:idx_project_member;index" json:"user_id"`
	Role      MemberRole `gorm:"size:16;not null" json:"role"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
	IsActive  bool       `json:"is_active"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
}
