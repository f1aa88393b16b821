package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/umairdev1/project-management-tool/internal/models"
)

func TestTaskCreateAndAssign(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	carol := e.user(t, "carol@example.com")
	p := e.project(t, alice, "Apollo")
	e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberMember)

	task, err := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "Design", AssigneeID: bob.UserID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Status != models.TaskTodo || task.Priority != models.PriorityMedium || task.Order != 0 {
		t.Errorf("task defaults = %+v", task)
	}
	if e.emit.count("project_"+p.ID, "task_created") != 1 {
		t.Error("task_created should be emitted to the project channel")
	}
	notes, _ := e.notify.List(ctx, bob.UserID, true, 10)
	if len(notes) != 2 || notes[0].Type != models.NotifyTaskAssigned {
		t.Errorf("bob notifications = %+v", notes)
	}

	second, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "Build"})
	if second.Order != 1 {
		t.Errorf("second task order = %d, want 1", second.Order)
	}

	if _, err := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "x", AssigneeID: carol.UserID}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("assigning a non-member error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.tasks.Create(ctx, carol, p.ID, TaskInput{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("outsider Create() error = %v, want ErrNotFound", err)
	}

	got, err := e.tasks.Assign(ctx, bob, second.ID, bob.UserID)
	if err != nil || got.AssigneeID == nil || *got.AssigneeID != bob.UserID {
		t.Fatalf("Assign() = %+v, %v", got, err)
	}
	got, err = e.tasks.Assign(ctx, alice, second.ID, "")
	if err != nil || got.AssigneeID != nil {
		t.Fatalf("unassign = %+v, %v", got, err)
	}
}

func TestTaskUpdateStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	e.tasks.WithClock(func() time.Time { return now })
	alice := e.user(t, "alice@example.com")
	p := e.project(t, alice, "Apollo")
	task, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "Ship"})

	done := models.TaskCompleted
	up, err := e.tasks.Update(ctx, alice, task.ID, TaskUpdate{Status: &done})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if up.CompletedAt == nil || !up.CompletedAt.Equal(now) || up.Progress != 100 {
		t.Errorf("completed task = %+v", up)
	}

	back := models.TaskInProgress
	up, err = e.tasks.Update(ctx, alice, task.ID, TaskUpdate{Status: &back})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if up.CompletedAt != nil {
		t.Error("leaving completed should clear completed_at")
	}

	bad := models.TaskStatus("lost")
	if _, err := e.tasks.Update(ctx, alice, task.ID, TaskUpdate{Status: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("invalid status error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.tasks.Update(ctx, alice, task.ID, TaskUpdate{Progress: ptr(120.0)}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("progress over 100 error = %v, want ErrInvalidInput", err)
	}

	logs, _ := e.activity.ListByProject(ctx, p.ID, 10)
	var statusChanges int
	for _, l := range logs {
		if l.Type == models.ActivityTaskStatusChange {
			statusChanges++
		}
	}
	if statusChanges != 2 {
		t.Errorf("status change activities = %d, want 2", statusChanges)
	}
}

func TestTaskGetDerivedFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	e.tasks.WithClock(func() time.Time { return now })
	alice := e.user(t, "alice@example.com")
	p := e.project(t, alice, "Apollo")

	task, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "Late", DueDate: ptr(now.Add(-30 * time.Hour))})
	if _, err := e.tasks.CreateSubtask(ctx, alice, task.ID, SubtaskInput{Title: "step"}); err != nil {
		t.Fatalf("CreateSubtask() error = %v", err)
	}

	v, err := e.tasks.Get(ctx, alice, task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !v.IsOverdue || v.DaysRemaining != -1 || v.SubtaskCount != 1 {
		t.Errorf("view = overdue %v, days %d, subtasks %d", v.IsOverdue, v.DaysRemaining, v.SubtaskCount)
	}
}

func TestTaskMove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	p := e.project(t, alice, "Apollo")

	a, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "a", Status: models.TaskInProgress})
	b, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "b", Status: models.TaskInProgress})
	c, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "c"})

	moved, err := e.tasks.Move(ctx, alice, c.ID, models.TaskInProgress, 0)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.Status != models.TaskInProgress || moved.Order != 0 {
		t.Errorf("moved = %+v", moved)
	}

	column, err := e.tasks.ListByProject(ctx, alice, p.ID, TaskFilter{Status: models.TaskInProgress})
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	want := []string{c.ID, a.ID, b.ID}
	if len(column) != len(want) {
		t.Fatalf("column has %d tasks, want %d", len(column), len(want))
	}
	for i, id := range want {
		if column[i].ID != id {
			t.Errorf("column[%d] = %s, want %s", i, column[i].Title, id)
		}
	}

	if _, err := e.tasks.Move(ctx, alice, c.ID, "nowhere", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Move() to unknown status error = %v, want ErrInvalidInput", err)
	}
}

func TestTaskBacklog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	p := e.project(t, alice, "Apollo")

	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "low", Priority: models.PriorityLow})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "urgent", Priority: models.PriorityUrgent})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "scheduled", StartDate: ptr(time.Now())})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "started", Status: models.TaskInProgress})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "high", Priority: models.PriorityHigh})

	backlog, err := e.tasks.Backlog(ctx, alice, p.ID)
	if err != nil {
		t.Fatalf("Backlog() error = %v", err)
	}
	want := []string{"urgent", "high", "low"}
	if len(backlog) != len(want) {
		t.Fatalf("backlog = %d tasks, want %d", len(backlog), len(want))
	}
	for i, title := range want {
		if backlog[i].Title != title {
			t.Errorf("backlog[%d] = %s, want %s", i, backlog[i].Title, title)
		}
	}
}

func TestTaskDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	p := e.project(t, alice, "Apollo")
	e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberMember)
	task, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "mine"})

	if err := e.tasks.Delete(ctx, bob, task.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-creator member Delete() error = %v, want ErrForbidden", err)
	}
	if err := e.tasks.Delete(ctx, alice, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := e.tasks.Get(ctx, alice, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if e.emit.count("project_"+p.ID, "task_deleted") != 1 {
		t.Error("task_deleted should be emitted")
	}
}

func TestSubtasks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	p := e.project(t, alice, "Apollo")
	task, _ := e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "parent"})

	first, _ := e.tasks.CreateSubtask(ctx, alice, task.ID, SubtaskInput{Title: "one"})
	second, _ := e.tasks.CreateSubtask(ctx, alice, task.ID, SubtaskInput{Title: "two"})
	if first.Order != 0 || second.Order != 1 {
		t.Errorf("orders = %d, %d", first.Order, second.Order)
	}

	done := models.TaskCompleted
	up, err := e.tasks.UpdateSubtask(ctx, alice, first.ID, SubtaskUpdate{Status: &done, Title: ptr("uno")})
	if err != nil {
		t.Fatalf("UpdateSubtask() error = %v", err)
	}
	if up.Status != models.TaskCompleted || up.Title != "uno" {
		t.Errorf("updated subtask = %+v", up)
	}

	if err := e.tasks.DeleteSubtask(ctx, alice, second.ID); err != nil {
		t.Fatalf("DeleteSubtask() error = %v", err)
	}
	list, err := e.tasks.ListSubtasks(ctx, alice, task.ID)
	if err != nil {
		t.Fatalf("ListSubtasks() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != first.ID {
		t.Errorf("subtasks = %+v", list)
	}
}

func TestSweepDeadlines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	e.tasks.WithClock(func() time.Time { return now })
	alice := e.user(t, "alice@example.com")
	p := e.project(t, alice, "Apollo")

	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "late", AssigneeID: alice.UserID, DueDate: ptr(now.Add(-time.Hour))})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "soon", AssigneeID: alice.UserID, DueDate: ptr(now.Add(3 * time.Hour))})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "later", AssigneeID: alice.UserID, DueDate: ptr(now.Add(72 * time.Hour))})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "nobody", DueDate: ptr(now.Add(-time.Hour))})
	e.tasks.Create(ctx, alice, p.ID, TaskInput{Title: "done", AssigneeID: alice.UserID, Status: models.TaskCompleted, DueDate: ptr(now.Add(-time.Hour))})

	sent, err := e.tasks.SweepDeadlines(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepDeadlines() error = %v", err)
	}
	if sent != 2 {
		t.Errorf("first sweep sent %d, want 2", sent)
	}
	sent, _ = e.tasks.SweepDeadlines(ctx, 24*time.Hour)
	if sent != 0 {
		t.Errorf("second sweep sent %d, want 0", sent)
	}

	now = now.Add(5 * time.Hour)
	sent, _ = e.tasks.SweepDeadlines(ctx, 24*time.Hour)
	if sent != 1 {
		t.Errorf("sweep after the soon task passed sent %d, want 1", sent)
	}

	var kinds []models.NotificationType
	e.db.Model(&models.Notification{}).Where("user_id = ?", alice.UserID).Order("created_at asc").Pluck("type", &kinds)
	want := map[models.NotificationType]int{models.NotifyDeadlinePassed: 2, models.NotifyDeadlineApproaching: 1}
	got := map[models.NotificationType]int{}
	for _, k := range kinds {
		got[k]++
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s notifications = %d, want %d", k, got[k], n)
		}
	}
}
