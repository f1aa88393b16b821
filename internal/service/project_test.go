package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/umairdev1/project-management-tool/internal/models"
)

func TestProjectCreate_OwnerAndRoom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")

	p := e.project(t, alice, "Apollo")
	if p.OwnerID != alice.UserID || p.Status != models.ProjectPlanned || !p.IsActive {
		t.Errorf("project = %+v", p)
	}

	members, err := e.projects.ListMembers(ctx, alice, p.ID)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(members) != 1 || members[0].Role != models.MemberOwner || members[0].Email != "alice@example.com" {
		t.Errorf("members = %+v", members)
	}

	rooms, err := e.chat.ListRooms(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("ListRooms() error = %v", err)
	}
	if len(rooms) != 1 || rooms[0].Type != models.RoomProject || *rooms[0].ProjectID != p.ID {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	start := time.Now()

	tests := []struct {
		name  string
		actor Actor
		in    ProjectInput
		want  error
	}{
		{"blank name", alice, ProjectInput{Name: "  "}, ErrInvalidInput},
		{"end before start", alice, ProjectInput{Name: "x", StartDate: &start, EndDate: ptr(start.Add(-time.Hour))}, ErrInvalidInput},
		{"viewer", Actor{UserID: alice.UserID, Role: models.RoleViewer}, ProjectInput{Name: "x"}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.projects.Create(ctx, tt.actor, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProjectAuthorize(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	carol := e.user(t, "carol@example.com")
	admin := Actor{UserID: "root", Role: models.RoleAdmin}

	p := e.project(t, alice, "Apollo")
	if _, err := e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberViewer); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	tests := []struct {
		name  string
		actor Actor
		need  Access
		want  error
	}{
		{"owner owns", alice, AccessOwn, nil},
		{"viewer views", bob, AccessView, nil},
		{"viewer cannot contribute", bob, AccessContribute, ErrForbidden},
		{"outsider sees nothing", carol, AccessView, ErrNotFound},
		{"admin owns", admin, AccessOwn, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.projects.Authorize(ctx, tt.actor, p.ID, tt.need)
			if !errors.Is(err, tt.want) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.want)
			}
		})
	}

	public := true
	if _, err := e.projects.Update(ctx, alice, p.ID, ProjectUpdate{IsPublic: &public}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := e.projects.Authorize(ctx, carol, p.ID, AccessView); err != nil {
		t.Errorf("outsider should view a public project: %v", err)
	}
	if _, err := e.projects.Authorize(ctx, carol, p.ID, AccessContribute); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider contribute error = %v, want ErrForbidden", err)
	}
}

func TestProjectMembers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	p := e.project(t, alice, "Apollo")

	if _, err := e.projects.AddMember(ctx, alice, p.ID, bob.UserID, ""); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if _, err := e.projects.AddMember(ctx, alice, p.ID, bob.UserID, ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second AddMember() error = %v, want ErrDuplicate", err)
	}
	if _, err := e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberOwner); err == nil {
		t.Error("AddMember() should refuse a second owner")
	}
	if e.emit.count("project_"+p.ID, "member_added") != 1 {
		t.Error("member_added should be emitted once")
	}
	if n, _ := e.notify.UnreadCount(ctx, bob.UserID); n != 1 {
		t.Errorf("bob unread notifications = %d, want 1", n)
	}
	rooms, _ := e.chat.ListRooms(ctx, bob.UserID)
	if len(rooms) != 1 {
		t.Errorf("bob should be in the project room, rooms = %d", len(rooms))
	}

	m, err := e.projects.ChangeMemberRole(ctx, alice, p.ID, bob.UserID, models.MemberManager)
	if err != nil || m.Role != models.MemberManager {
		t.Fatalf("ChangeMemberRole() = %+v, %v", m, err)
	}
	if _, err := e.projects.ChangeMemberRole(ctx, bob, p.ID, alice.UserID, models.MemberViewer); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("changing the owner's role error = %v, want ErrInvalidInput", err)
	}
	if err := e.projects.RemoveMember(ctx, bob, p.ID, alice.UserID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("removing the owner error = %v, want ErrInvalidInput", err)
	}

	if err := e.projects.RemoveMember(ctx, alice, p.ID, bob.UserID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if _, err := e.projects.Get(ctx, bob, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("removed member Get() error = %v, want ErrNotFound", err)
	}
	if !e.emit.evicted("project_"+p.ID, bob.UserID) {
		t.Error("removed member should be evicted from the project channel")
	}
	if !e.emit.evicted("room_"+rooms[0].ID, bob.UserID) {
		t.Error("removed member should be evicted from the project room")
	}
	rooms, _ = e.chat.ListRooms(ctx, bob.UserID)
	if len(rooms) != 0 {
		t.Errorf("removed member still in %d rooms", len(rooms))
	}

	// re-adding reactivates the existing row
	if _, err := e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberMember); err != nil {
		t.Fatalf("re-AddMember() error = %v", err)
	}
	var rows int64
	e.db.Model(&models.ProjectMember{}).Where("project_id = ? AND user_id = ?", p.ID, bob.UserID).Count(&rows)
	if rows != 1 {
		t.Errorf("membership rows = %d, want 1", rows)
	}
}

func TestProjectUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	p := e.project(t, alice, "Apollo")
	e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberMember)

	if _, err := e.projects.Update(ctx, bob, p.ID, ProjectUpdate{Name: ptr("Hermes")}); !errors.Is(err, ErrForbidden) {
		t.Errorf("member Update() error = %v, want ErrForbidden", err)
	}
	done := models.ProjectCompleted
	up, err := e.projects.Update(ctx, alice, p.ID, ProjectUpdate{Name: ptr("Hermes"), Status: &done})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if up.Name != "Hermes" || up.Status != models.ProjectCompleted || up.ActualEndDate == nil {
		t.Errorf("updated project = %+v", up)
	}
	if e.emit.count("project_"+p.ID, "project_updated") != 1 {
		t.Error("project_updated should be emitted")
	}

	if err := e.projects.Delete(ctx, bob, p.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("member Delete() error = %v, want ErrForbidden", err)
	}
	rooms, _ := e.chat.ListRooms(ctx, alice.UserID)
	if err := e.projects.Delete(ctx, alice, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !e.emit.evicted("project_"+p.ID, "") {
		t.Error("Delete() should evict every project subscriber")
	}
	if len(rooms) != 1 || !e.emit.evicted("room_"+rooms[0].ID, "") {
		t.Errorf("Delete() should evict every subscriber of the project room, rooms = %d", len(rooms))
	}
	list, err := e.projects.List(ctx, alice, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("deleted project still listed: %+v", list)
	}
}

func TestProjectList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")

	e.project(t, alice, "Private")
	if _, err := e.projects.Create(ctx, alice, ProjectInput{Name: "Open", IsPublic: true}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	e.project(t, bob, "Bob's")

	tests := []struct {
		actor Actor
		want  int
	}{
		{alice, 2},
		{bob, 2},
		{Actor{UserID: "x", Role: models.RoleAdmin}, 3},
	}
	for _, tt := range tests {
		list, err := e.projects.List(ctx, tt.actor, "")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != tt.want {
			t.Errorf("List() for %s = %d projects, want %d", tt.actor.UserID, len(list), tt.want)
		}
	}
}

func TestProjectOverview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	e.projects.WithClock(func() time.Time { return now })
	e.tasks.WithClock(func() time.Time { return now })
	alice := e.user(t, "alice@example.com")

	p, err := e.projects.Create(ctx, alice, ProjectInput{Name: "Apollo", EndDate: ptr(now.Add(48 * time.Hour))})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, in := range []TaskInput{
		{Title: "a", Status: models.TaskCompleted},
		{Title: "b", DueDate: ptr(now.Add(-time.Hour))},
		{Title: "c"},
		{Title: "d", Status: models.TaskCancelled},
	} {
		if _, err := e.tasks.Create(ctx, alice, p.ID, in); err != nil {
			t.Fatalf("task Create() error = %v", err)
		}
	}

	ov, err := e.projects.Overview(ctx, alice, p.ID)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if ov.TotalTasks != 4 || ov.OverdueTasks != 1 || ov.MemberCount != 1 || ov.DaysRemaining != 2 {
		t.Errorf("overview = %+v", ov)
	}
	if ov.Completion != 33.33 {
		t.Errorf("Completion = %v, want 33.33", ov.Completion)
	}
	if ov.TaskCounts[models.TaskTodo] != 2 {
		t.Errorf("todo count = %d, want 2", ov.TaskCounts[models.TaskTodo])
	}

	stored, _ := e.projects.Get(ctx, alice, p.ID)
	if stored.Progress != 33.33 {
		t.Errorf("stored progress = %v, want 33.33", stored.Progress)
	}
}
