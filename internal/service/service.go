package service

import (
	"errors"
	"time"

	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

// Emitter fans events out to realtime subscribers. Implementations prefix the
// identifiers into room_{id}, user_{id} and project_{id} channels.
type Emitter interface {
	EmitToRoom(roomID, event string, payload any)
	EmitToUser(userID, event string, payload any)
	EmitToProject(projectID, event string, payload any)
	BroadcastAll(event string, payload any)
	// EvictFromRoom and EvictFromProject drop live subscriptions after access
	// is revoked. An empty userID drops every subscriber.
	EvictFromRoom(roomID, userID string)
	EvictFromProject(projectID, userID string)
}

type nopEmitter struct{}

func (nopEmitter) EmitToRoom(string, string, any)    {}
func (nopEmitter) EmitToUser(string, string, any)    {}
func (nopEmitter) EmitToProject(string, string, any) {}
func (nopEmitter) BroadcastAll(string, any)          {}
func (nopEmitter) EvictFromRoom(string, string)      {}
func (nopEmitter) EvictFromProject(string, string)   {}

func orNop(e Emitter) Emitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// MessageResponse is the acknowledgment body of operations without a payload.
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func clampLimit(limit, def, most int) int {
	if limit <= 0 || limit > most {
		return def
	}
	return limit
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timePtr(t time.Time) *time.Time { return &t }
