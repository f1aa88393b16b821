package service

import (
	"context"
	"errors"
	"testing"

	"github.com/umairdev1/project-management-tool/internal/models"
)

func TestFileLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	p := e.project(t, alice, "Apollo")
	e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberMember)

	f, err := e.files.Register(ctx, bob, p.ID, FileInput{OriginalName: "brief.pdf", FilePath: "uploads/2026/abc.pdf", MimeType: "application/pdf", FileSize: 2048})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if f.FileType != models.FileDocument || f.Status != models.FileReady || f.FileName != "abc.pdf" {
		t.Errorf("file = %+v", f)
	}
	if _, err := e.files.Register(ctx, bob, p.ID, FileInput{OriginalName: "x", FilePath: "y", TaskID: "missing"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Register() with foreign task error = %v, want ErrInvalidInput", err)
	}

	got, err := e.files.Get(ctx, alice, f.ID)
	if err != nil || got.ViewCount != 1 {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	got, err = e.files.MarkDownloaded(ctx, alice, f.ID)
	if err != nil || got.DownloadCount != 1 {
		t.Fatalf("MarkDownloaded() = %+v, %v", got, err)
	}

	list, _ := e.files.List(ctx, alice, p.ID, "")
	if len(list) != 1 {
		t.Errorf("List() = %d files, want 1", len(list))
	}

	// bob uploaded it, so bob may delete it without managing the project
	if err := e.files.Delete(ctx, bob, f.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := e.files.Get(ctx, alice, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestFileDelete_RequiresUploaderOrManager(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	p := e.project(t, alice, "Apollo")
	e.projects.AddMember(ctx, alice, p.ID, bob.UserID, models.MemberMember)

	f, _ := e.files.Register(ctx, alice, p.ID, FileInput{OriginalName: "a.png", FilePath: "a.png", MimeType: "image/png"})
	if err := e.files.Delete(ctx, bob, f.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() by plain member error = %v, want ErrForbidden", err)
	}
}
