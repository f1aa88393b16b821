package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: TaskTodo}, false},
		{"due in future", Task{Status: TaskTodo, DueDate: ptr(now.Add(time.Hour))}, false},
		{"due in past", Task{Status: TaskInProgress, DueDate: ptr(now.Add(-time.Hour))}, true},
		{"completed past due", Task{Status: TaskCompleted, DueDate: ptr(now.Add(-time.Hour))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskIsOverdue(tt.task, now); got != tt.want {
				t.Errorf("TaskIsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  *time.Time
		want int
	}{
		{"unset", nil, 0},
		{"partial day rounds up", ptr(now.Add(2 * time.Hour)), 1},
		{"three days", ptr(now.Add(72 * time.Hour)), 3},
		{"past", ptr(now.Add(-49 * time.Hour)), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskDaysRemaining(Task{DueDate: tt.end}, now); got != tt.want {
				t.Errorf("TaskDaysRemaining() = %d, want %d", got, tt.want)
			}
			if got := ProjectDaysRemaining(Project{EndDate: tt.end}, now); got != tt.want {
				t.Errorf("ProjectDaysRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProjectIsOverdue(t *testing.T) {
	now := time.Now()
	past := ptr(now.Add(-time.Hour))
	if !ProjectIsOverdue(Project{Status: ProjectInProgress, EndDate: past}, now) {
		t.Error("in-progress project past end date should be overdue")
	}
	if ProjectIsOverdue(Project{Status: ProjectCompleted, EndDate: past}, now) {
		t.Error("completed project should not be overdue")
	}
}

func TestProgressFromTasks(t *testing.T) {
	tasks := []Task{
		{Status: TaskCompleted, IsActive: true},
		{Status: TaskTodo, IsActive: true},
		{Status: TaskInProgress, IsActive: true},
		{Status: TaskCancelled, IsActive: true},
		{Status: TaskCompleted, IsActive: false},
	}
	if got := ProgressFromTasks(tasks); got != 33.33 {
		t.Errorf("ProgressFromTasks() = %v, want 33.33", got)
	}
	if got := ProgressFromTasks(nil); got != 0 {
		t.Errorf("ProgressFromTasks(nil) = %v, want 0", got)
	}
}

func TestMemberPermissions(t *testing.T) {
	tests := []struct {
		member     ProjectMember
		edit, drop bool
	}{
		{ProjectMember{Role: MemberOwner, IsActive: true}, true, true},
		{ProjectMember{Role: MemberManager, IsActive: true}, true, false},
		{ProjectMember{Role: MemberMember, IsActive: true}, false, false},
		{ProjectMember{Role: MemberOwner, IsActive: false}, false, false},
	}
	for _, tt := range tests {
		if got := MemberCanEdit(tt.member); got != tt.edit {
			t.Errorf("MemberCanEdit(%s) = %v, want %v", tt.member.Role, got, tt.edit)
		}
		if got := MemberCanDelete(tt.member); got != tt.drop {
			t.Errorf("MemberCanDelete(%s) = %v, want %v", tt.member.Role, got, tt.drop)
		}
	}
}

func TestFileTypeFromMime(t *testing.T) {
	tests := map[string]FileType{
		"image/png":          FileImage,
		"video/mp4":          FileVideo,
		"audio/mpeg":         FileAudio,
		"application/zip":    FileArchive,
		"application/pdf":    FileDocument,
		"text/plain":         FileDocument,
		"application/x-blob": FileOther,
	}
	for mime, want := range tests {
		if got := FileTypeFromMime(mime); got != want {
			t.Errorf("FileTypeFromMime(%q) = %v, want %v", mime, got, want)
		}
	}
}

func TestFullName(t *testing.T) {
	if got := FullName(User{FirstName: "Alice", LastName: "Liddell"}); got != "Alice Liddell" {
		t.Errorf("FullName() = %q", got)
	}
}
