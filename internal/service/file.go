package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

// FileService tracks attachment metadata. Bytes live in external storage;
// FilePath is whatever locator that storage handed back.
type FileService struct {
	db       *gorm.DB
	activity *ActivityService
	projects *ProjectService
	now      func() time.Time
}

func NewFileService(db *gorm.DB, activity *ActivityService, projects *ProjectService) *FileService {
	return &FileService{db: db, activity: activity, projects: projects, now: time.Now}
}

type FileInput struct {
	OriginalName string
	FilePath     string
	MimeType     string
	FileSize     int64
	TaskID       string
	Description  string
	Tags         string
	IsPublic     bool
}

func (s *FileService) Register(ctx context.Context, actor Actor, projectID string, in FileInput) (*models.FileAttachment, error) {
	if _, err := s.projects.Authorize(ctx, actor, projectID, AccessContribute); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.OriginalName)
	if name == "" || in.FilePath == "" || in.FileSize < 0 {
		return nil, ErrInvalidInput
	}
	if in.TaskID != "" {
		var n int64
		err := s.db.WithContext(ctx).Model(&models.Task{}).
			Where("id = ? AND project_id = ? AND is_active = ?", in.TaskID, projectID, true).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrInvalidInput
		}
	}
	now := s.now()
	f := models.FileAttachment{
		OriginalName: name,
		FileName:     path.Base(in.FilePath),
		FilePath:     in.FilePath,
		MimeType:     orDefault(in.MimeType, "application/octet-stream"),
		FileSize:     in.FileSize,
		FileType:     models.FileTypeFromMime(in.MimeType),
		Status:       models.FileReady,
		ProjectID:    &projectID,
		TaskID:       strPtr(in.TaskID),
		UserID:       strPtr(actor.UserID),
		Description:  in.Description,
		Tags:         in.Tags,
		IsPublic:     in.IsPublic,
		ProcessedAt:  &now,
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.ActivityFileUpload, "uploaded file", &f)
	return &f, nil
}

// List returns a project's live files, optionally narrowed to one task.
func (s *FileService) List(ctx context.Context, actor Actor, projectID, taskID string) ([]models.FileAttachment, error) {
	if _, err := s.projects.Authorize(ctx, actor, projectID, AccessView); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("project_id = ? AND status <> ?", projectID, models.FileDeleted)
	if taskID != "" {
		q = q.Where("task_id = ?", taskID)
	}
	var out []models.FileAttachment
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// Get counts a view.
func (s *FileService) Get(ctx context.Context, actor Actor, id string) (*models.FileAttachment, error) {
	f, err := s.load(ctx, actor, id, AccessView)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(f).UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, err
	}
	f.ViewCount++
	return f, nil
}

func (s *FileService) MarkDownloaded(ctx context.Context, actor Actor, id string) (*models.FileAttachment, error) {
	f, err := s.load(ctx, actor, id, AccessView)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(f).UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error; err != nil {
		return nil, err
	}
	f.DownloadCount++
	s.record(ctx, actor, models.ActivityFileDownload, "downloaded file", f)
	return f, nil
}

// Delete is allowed to the uploader and to project managers.
func (s *FileService) Delete(ctx context.Context, actor Actor, id string) error {
	f, err := s.load(ctx, actor, id, AccessView)
	if err != nil {
		return err
	}
	if f.UserID == nil || *f.UserID != actor.UserID {
		if _, err := s.projects.Authorize(ctx, actor, *f.ProjectID, AccessManage); err != nil {
			return err
		}
	}
	err = s.db.WithContext(ctx).Model(f).Updates(map[string]any{
		"status":     models.FileDeleted,
		"deleted_at": s.now(),
	}).Error
	if err != nil {
		return err
	}
	s.record(ctx, actor, models.ActivityFileDelete, "deleted file", f)
	return nil
}

func (s *FileService) load(ctx context.Context, actor Actor, id string, need Access) (*models.FileAttachment, error) {
	var f models.FileAttachment
	if err := s.db.WithContext(ctx).First(&f, "id = ? AND status <> ?", id, models.FileDeleted).Error; err != nil {
		return nil, notFound(err)
	}
	if f.ProjectID == nil {
		if f.UserID == nil || *f.UserID != actor.UserID {
			return nil, ErrNotFound
		}
		return &f, nil
	}
	if _, err := s.projects.Authorize(ctx, actor, *f.ProjectID, need); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FileService) record(ctx context.Context, actor Actor, kind models.ActivityType, action string, f *models.FileAttachment) {
	entry := activity(kind, action, actor.UserID)
	entry.ProjectID = f.ProjectID
	entry.TaskID = f.TaskID
	entry.TargetID, entry.TargetType = f.ID, "file"
	entry.Description = f.OriginalName
	s.activity.Record(ctx, entry)
}
