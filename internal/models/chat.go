package models

import "time"

type RoomType string

const (
	RoomProject RoomType = "project"
	RoomDirect  RoomType = "direct"
	RoomGroup   RoomType = "group"
)

type ChatRoom struct {
	Base
	Name        string   `gorm:"size:200;not null" json:"name"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	Type        RoomType `gorm:"size:16;not null;index" json:"type"`
	ProjectID   *string  `gorm:"size:36;index" json:"project_id,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	IsActive    bool     `json:"is_active"`
	IsPrivate   bool     `json:"is_private"`
	IsArchived  bool     `json:"is_archived"`
	CreatedByID string   `gorm:"size:36" json:"created_by_id"`
}

type ChatRoomMember struct {
	RoomID   string    `gorm:"primaryKey;size:36" json:"room_id"`
	UserID   string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type MessageType string

const (
	MessageText        MessageType = "text"
	MessageFile        MessageType = "file"
	MessageImage       MessageType = "image"
	MessageSystem      MessageType = "system"
	MessageTaskComment MessageType = "task_comment"
)

type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
	MessageFailed    MessageStatus = "failed"
)

type ChatMessage struct {
	Base
	Content   string        `gorm:"type:text;not null" json:"content"`
	Type      MessageType   `gorm:"size:16;not null" json:"type"`
	Status    MessageStatus `gorm:"size:16;not null" json:"status"`
	RoomID    string        `gorm:"size:36;not null;index:idx_msg_room_created" json:"room_id"`
	AuthorID  string        `gorm:"size:36;not null;index" json:"author_id"`
	TaskID    *string       `gorm:"size:36;index" json:"task_id,omitempty"`
	ReplyToID *string       `gorm:"size:36;index" json:"reply_to_id,omitempty"`
	FileURL   string        `json:"file_url,omitempty"`
	FileName  string        `json:"file_name,omitempty"`
	FileSize  int64         `json:"file_size,omitempty"`
	MimeType  string        `json:"mime_type,omitempty"`
	Mentions  []string      `gorm:"type:text;serializer:json" json:"mentions,omitempty"`
	ReadBy    []string      `gorm:"type:text;serializer:json" json:"read_by,omitempty"`
	IsEdited  bool          `json:"is_edited"`
	EditedAt  *time.Time    `json:"edited_at,omitempty"`
	IsDeleted bool          `json:"is_deleted"`
	DeletedAt *time.Time    `json:"deleted_at,omitempty"`
}
