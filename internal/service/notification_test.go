package service

import (
	"context"
	"errors"
	"testing"

	"github.com/umairdev1/project-management-tool/internal/models"
)

func TestNotifications(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")

	first := e.notify.Notify(ctx, models.Notification{Title: "one", Type: models.NotifySystem, UserID: alice.UserID})
	e.notify.Notify(ctx, models.Notification{Title: "two", Type: models.NotifySystem, UserID: alice.UserID})
	if first == nil || first.Status != models.NotificationSent || first.SentAt == nil {
		t.Fatalf("Notify() = %+v", first)
	}
	if e.emit.count("user_"+alice.UserID, "notification") != 2 {
		t.Error("each notification should be pushed to the user channel")
	}
	if n := e.notify.Notify(ctx, models.Notification{Title: "nobody"}); n != nil {
		t.Error("Notify() without recipient should be skipped")
	}

	if _, err := e.notify.MarkRead(ctx, first.ID, bob.UserID); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead() of someone else's notification error = %v, want ErrNotFound", err)
	}
	read, err := e.notify.MarkRead(ctx, first.ID, alice.UserID)
	if err != nil || !read.IsRead || read.ReadAt == nil {
		t.Fatalf("MarkRead() = %+v, %v", read, err)
	}
	if n, _ := e.notify.UnreadCount(ctx, alice.UserID); n != 1 {
		t.Errorf("UnreadCount() = %d, want 1", n)
	}
	unread, _ := e.notify.List(ctx, alice.UserID, true, 0)
	if len(unread) != 1 || unread[0].Title != "two" {
		t.Errorf("unread = %+v", unread)
	}

	changed, err := e.notify.MarkAllRead(ctx, alice.UserID)
	if err != nil || changed != 1 {
		t.Errorf("MarkAllRead() = %d, %v", changed, err)
	}
	if n, _ := e.notify.UnreadCount(ctx, alice.UserID); n != 0 {
		t.Errorf("UnreadCount() after MarkAllRead = %d", n)
	}
}
