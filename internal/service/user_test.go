package service

import (
	"context"
	"errors"
	"testing"

	"github.com/umairdev1/project-management-tool/internal/models"
)

func TestUserAdministration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	admin := Actor{UserID: "root", Role: models.RoleAdmin}

	if _, err := e.users.SetStatus(ctx, alice, bob.UserID, models.UserSuspended); !errors.Is(err, ErrForbidden) {
		t.Errorf("SetStatus() by non-admin error = %v, want ErrForbidden", err)
	}
	u, err := e.users.SetStatus(ctx, admin, bob.UserID, models.UserSuspended)
	if err != nil || u.Status != models.UserSuspended {
		t.Fatalf("SetStatus() = %+v, %v", u, err)
	}
	if _, err := e.auth.Login(ctx, "bob@example.com", "pw123456"); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("suspended Login() error = %v, want ErrAccountInactive", err)
	}
	if _, err := e.users.SetStatus(ctx, admin, bob.UserID, "gone"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetStatus(unknown) error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.users.SetRole(ctx, admin, "missing", models.RoleViewer); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetRole(missing) error = %v, want ErrNotFound", err)
	}

	u, err = e.users.SetRole(ctx, admin, alice.UserID, models.RoleProjectManager)
	if err != nil || u.Role != models.RoleProjectManager {
		t.Fatalf("SetRole() = %+v, %v", u, err)
	}

	active, err := e.users.List(ctx, UserFilter{Status: models.UserActive})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 || active[0].Email != "alice@example.com" {
		t.Errorf("active users = %+v", active)
	}
	found, _ := e.users.List(ctx, UserFilter{Search: "BOB"})
	if len(found) != 1 {
		t.Errorf("search found %d users, want 1", len(found))
	}
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")

	u, err := e.users.UpdateProfile(ctx, alice.UserID, ProfileUpdate{FirstName: ptr(" Alice "), Bio: ptr("builder")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if u.FirstName != "Alice" || u.Bio != "builder" || u.LastName != "User" {
		t.Errorf("profile = %+v", u)
	}
	if models.FullName(*u) != "Alice User" {
		t.Errorf("FullName() = %q", models.FullName(*u))
	}
	if _, err := e.users.UpdateProfile(ctx, "missing", ProfileUpdate{Bio: ptr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProfile(missing) error = %v, want ErrNotFound", err)
	}
}
