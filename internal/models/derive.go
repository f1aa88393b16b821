package models

import (
	"math"
	"strings"
	"time"
)

// Derived values are computed from stored fields and a caller-supplied now so
// that they never depend on persistence state.

func FullName(u User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func IsAdmin(u User) bool { return u.Role == RoleAdmin }

func IsProjectManager(u User) bool {
	return u.Role == RoleProjectManager || u.Role == RoleAdmin
}

func TaskIsOverdue(t Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return now.After(*t.DueDate) && t.Status != TaskCompleted
}

func TaskDaysRemaining(t Task, now time.Time) int {
	return daysUntil(t.DueDate, now)
}

func SubtaskIsOverdue(s Subtask, now time.Time) bool {
	if s.DueDate == nil {
		return false
	}
	return now.After(*s.DueDate) && s.Status != TaskCompleted
}

func ProjectIsOverdue(p Project, now time.Time) bool {
	if p.EndDate == nil {
		return false
	}
	return now.After(*p.EndDate) && p.Status != ProjectCompleted
}

func ProjectDaysRemaining(p Project, now time.Time) int {
	return daysUntil(p.EndDate, now)
}

// daysUntil rounds partial days up; zero when no date is set.
func daysUntil(end *time.Time, now time.Time) int {
	if end == nil {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// ProgressFromTasks is the completed share of non-cancelled tasks, 0 to 100.
func ProgressFromTasks(tasks []Task) float64 {
	var total, done int
	for _, t := range tasks {
		if !t.IsActive || t.Status == TaskCancelled {
			continue
		}
		total++
		if t.Status == TaskCompleted {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*10000) / 100
}

func MemberCanEdit(m ProjectMember) bool {
	return m.IsActive && (m.Role == MemberOwner || m.Role == MemberManager)
}

func MemberCanDelete(m ProjectMember) bool {
	return m.IsActive && m.Role == MemberOwner
}

func FileTypeFromMime(mime string) FileType {
	mime = strings.ToLower(mime)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return FileImage
	case strings.HasPrefix(mime, "video/"):
		return FileVideo
	case strings.HasPrefix(mime, "audio/"):
		return FileAudio
	case strings.Contains(mime, "zip"), strings.Contains(mime, "tar"),
		strings.Contains(mime, "rar"), strings.Contains(mime, "7z"), strings.Contains(mime, "gzip"):
		return FileArchive
	case strings.HasPrefix(mime, "text/"), mime == "application/pdf",
		strings.Contains(mime, "word"), strings.Contains(mime, "excel"),
		strings.Contains(mime, "spreadsheet"), strings.Contains(mime, "presentation"),
		strings.Contains(mime, "powerpoint"), strings.Contains(mime, "opendocument"):
		return FileDocument
	default:
		return FileOther
	}
}

func SizeInMB(size int64) float64 { return float64(size) / (1024 * 1024) }

func IsFileMessage(m ChatMessage) bool {
	return m.Type == MessageFile || m.Type == MessageImage
}
