package models

type ActivityType string

const (
	ActivityUserLogin          ActivityType = "user_login"
	ActivityUserLogout         ActivityType = "user_logout"
	ActivityUserRegister       ActivityType = "user_register"
	ActivityProfileUpdate      ActivityType = "user_profile_update"
	ActivityPasswordChange     ActivityType = "password_change"
	ActivityProjectCreate      ActivityType = "project_create"
	ActivityProjectUpdate      ActivityType = "project_update"
	ActivityProjectDelete      ActivityType = "project_delete"
	ActivityMemberAdd          ActivityType = "project_member_add"
	ActivityMemberRemove       ActivityType = "project_member_remove"
	ActivityMemberRoleChange   ActivityType = "project_member_role_change"
	ActivityProjectStatus      ActivityType = "project_status_change"
	ActivityTaskCreate         ActivityType = "task_create"
	ActivityTaskUpdate         ActivityType = "task_update"
	ActivityTaskDelete         ActivityType = "task_delete"
	ActivityTaskAssign         ActivityType = "task_assign"
	ActivityTaskStatusChange   ActivityType = "task_status_change"
	ActivityTaskPriorityChange ActivityType = "task_priority_change"
	ActivityTaskComment        ActivityType = "task_comment"
	ActivityFileUpload         ActivityType = "file_upload"
	ActivityFileDelete         ActivityType = "file_delete"
	ActivityFileDownload       ActivityType = "file_download"
	ActivityMessageSend        ActivityType = "message_send"
	ActivityMessageEdit        ActivityType = "message_edit"
	ActivityMessageDelete      ActivityType = "message_delete"
)

type ActivityLevel string

const (
	LevelInfo     ActivityLevel = "info"
	LevelWarning  ActivityLevel = "warning"
	LevelError    ActivityLevel = "error"
	LevelCritical ActivityLevel = "critical"
)

type ActivityLog struct {
	Base
	Type        ActivityType   `gorm:"size:48;not null;index" json:"type"`
	Level       ActivityLevel  `gorm:"size:16;not null" json:"level"`
	Action      string         `gorm:"not null" json:"action"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	UserID      *string        `gorm:"size:36;index" json:"user_id,omitempty"`
	ProjectID   *string        `gorm:"size:36;index" json:"project_id,omitempty"`
	TaskID      *string        `gorm:"size:36;index" json:"task_id,omitempty"`
	TargetID    string         `gorm:"size:36" json:"target_id,omitempty"`
	TargetType  string         `gorm:"size:32" json:"target_type,omitempty"`
	IPAddress   string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	OldValues   map[string]any `gorm:"type:text;serializer:json" json:"old_values,omitempty"`
	NewValues   map[string]any `gorm:"type:text;serializer:json" json:"new_values,omitempty"`
	IsVisible   bool           `json:"is_visible"`
	IsSystem    bool           `json:"is_system"`
}
