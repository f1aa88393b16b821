package models

import "time"

type NotificationType string

const (
	NotifyTaskAssigned        NotificationType = "task_assigned"
	NotifyTaskUpdated         NotificationType = "task_updated"
	NotifyTaskCompleted       NotificationType = "task_completed"
	NotifyProjectInvite       NotificationType = "project_invite"
	NotifyProjectUpdate       NotificationType = "project_update"
	NotifyMention             NotificationType = "mention"
	NotifyComment             NotificationType = "comment"
	NotifyDeadlineApproaching NotificationType = "deadline_approaching"
	NotifyDeadlinePassed      NotificationType = "deadline_passed"
	NotifySystem              NotificationType = "system"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationRead      NotificationStatus = "read"
	NotificationFailed    NotificationStatus = "failed"
)

type DeliveryMethod string

const (
	DeliveryInApp DeliveryMethod = "in_app"
	DeliveryEmail DeliveryMethod = "email"
	DeliveryPush  DeliveryMethod = "push"
	DeliverySMS   DeliveryMethod = "sms"
)

type NotificationAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
}

type Notification struct {
	Base
	Title          string               `gorm:"size:255;not null" json:"title"`
	Message        string               `gorm:"type:text" json:"message,omitempty"`
	Type           NotificationType     `gorm:"size:32;not null" json:"type"`
	Priority       Priority             `gorm:"size:16;not null" json:"priority"`
	Status         NotificationStatus   `gorm:"size:16;not null" json:"status"`
	DeliveryMethod DeliveryMethod       `gorm:"size:16;not null" json:"delivery_method"`
	UserID         string               `gorm:"size:36;not null;index" json:"user_id"`
	ProjectID      *string              `gorm:"size:36" json:"project_id,omitempty"`
	TaskID         *string              `gorm:"size:36" json:"task_id,omitempty"`
	SenderID       *string              `gorm:"size:36" json:"sender_id,omitempty"`
	IsRead         bool                 `gorm:"index" json:"is_read"`
	ReadAt         *time.Time           `json:"read_at,omitempty"`
	SentAt         *time.Time           `json:"sent_at,omitempty"`
	Metadata       map[string]any       `gorm:"type:text;serializer:json" json:"metadata,omitempty"`
	Actions        []NotificationAction `gorm:"type:text;serializer:json" json:"actions,omitempty"`
}
