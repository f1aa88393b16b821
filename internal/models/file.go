package models

import "time"

type FileType string

const (
	FileDocument FileType = "document"
	FileImage    FileType = "image"
	FileVideo    FileType = "video"
	FileAudio    FileType = "audio"
	FileArchive  FileType = "archive"
	FileOther    FileType = "other"
)

type FileStatus string

const (
	FileUploading  FileStatus = "uploading"
	FileProcessing FileStatus = "processing"
	FileReady      FileStatus = "ready"
	FileFailed     FileStatus = "failed"
	FileDeleted    FileStatus = "deleted"
)

type FileAttachment struct {
	Base
	OriginalName  string     `gorm:"size:255;not null" json:"original_name"`
	FileName      string     `gorm:"size:255;not null" json:"file_name"`
	FilePath      string     `gorm:"not null" json:"file_path"`
	MimeType      string     `gorm:"size:127;not null" json:"mime_type"`
	FileSize      int64      `json:"file_size"`
	FileType      FileType   `gorm:"size:16;not null" json:"file_type"`
	Status        FileStatus `gorm:"size:16;not null;index" json:"status"`
	ProjectID     *string    `gorm:"size:36;index" json:"project_id,omitempty"`
	TaskID        *string    `gorm:"size:36;index" json:"task_id,omitempty"`
	UserID        *string    `gorm:"size:36" json:"user_id,omitempty"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	Tags          string     `json:"tags,omitempty"`
	ThumbnailPath string     `json:"thumbnail_path,omitempty"`
	IsPublic      bool       `json:"is_public"`
	DownloadCount int        `json:"download_count"`
	ViewCount     int        `json:"view_count"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}
