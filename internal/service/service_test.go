package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/db"
	"github.com/umairdev1/project-management-tool/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

type event struct {
	channel string
	name    string
	payload any
}

// recorder is an Emitter that keeps everything it was asked to send.
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(channel, name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{channel, name, payload})
}

func (r *recorder) EmitToRoom(id, name string, p any)    { r.add("room_"+id, name, p) }
func (r *recorder) EmitToUser(id, name string, p any)    { r.add("user_"+id, name, p) }
func (r *recorder) EmitToProject(id, name string, p any) { r.add("project_"+id, name, p) }
func (r *recorder) BroadcastAll(name string, p any)      { r.add("*", name, p) }
func (r *recorder) EvictFromRoom(id, userID string)      { r.add("room_"+id, "evict", userID) }
func (r *recorder) EvictFromProject(id, userID string)   { r.add("project_"+id, "evict", userID) }

// evicted reports whether userID was evicted from channel.
func (r *recorder) evicted(channel, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.channel == channel && e.name == "evict" && e.payload == userID {
			return true
		}
	}
	return false
}

func (r *recorder) count(channel, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.channel == channel && e.name == name {
			n++
		}
	}
	return n
}

type fakeMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[email] = token
	return nil
}

func (m *fakeMailer) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type env struct {
	db       *gorm.DB
	emit     *recorder
	mailer   *fakeMailer
	issuer   *auth.Issuer
	activity *ActivityService
	notify   *NotificationService
	auth     *AuthService
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
	chat     *ChatService
	files    *FileService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Connect("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := &env{db: gdb, emit: &recorder{}, mailer: &fakeMailer{}, issuer: auth.NewIssuer("test-secret", time.Hour)}
	e.activity = NewActivityService(gdb, e.emit)
	e.notify = NewNotificationService(gdb, e.emit)
	e.auth = NewAuthService(gdb, e.issuer, e.mailer, e.activity)
	e.users = NewUserService(gdb, e.activity)
	e.projects = NewProjectService(gdb, e.emit, e.activity, e.notify)
	e.tasks = NewTaskService(gdb, e.emit, e.activity, e.notify, e.projects)
	e.chat = NewChatService(gdb, e.emit, e.activity, e.notify, e.projects)
	e.files = NewFileService(gdb, e.activity, e.projects)
	return e
}

// user registers an account and returns it as an Actor.
func (e *env) user(t *testing.T, email string) Actor {
	t.Helper()
	ctx := context.Background()
	if _, err := e.auth.Register(ctx, RegisterInput{Email: email, Password: "pw123456", FirstName: "Test", LastName: "User"}); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	var u models.User
	if err := e.db.First(&u, "email = ?", email).Error; err != nil {
		t.Fatalf("load %s: %v", email, err)
	}
	return Actor{UserID: u.ID, Role: u.Role}
}

func (e *env) project(t *testing.T, owner Actor, name string) *models.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), owner, ProjectInput{Name: name})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func ptr[T any](v T) *T { return &v }
