package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/clinicdesk/clinicdesk-go/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDB() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	user := &model.User{Email: "ana@clinic.test", FirstName: "Ana", LastName: "Silva", AuthHash: "hash"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Create() did not set the user ID")
	}

	byEmail, err := repo.GetByEmail(ctx, "ana@clinic.test")
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.FirstName != "Ana" || byEmail.AuthHash != "hash" {
		t.Errorf("GetByEmail() = %+v", byEmail)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("GetByID() Email = %q, want %q", byID.Email, user.Email)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	if err := repo.Create(ctx, &model.User{Email: "dup@clinic.test", AuthHash: "h"}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	err := repo.Create(ctx, &model.User{Email: "dup@clinic.test", AuthHash: "h"})
	if err != ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	if _, err := repo.GetByEmail(context.Background(), "nobody@clinic.test"); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), 404); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIsDuplicateEntryError(t *testing.T) {
	if isDuplicateEntryError(nil) {
		t.Fatal("nil error should not be a duplicate entry error")
	}
	if isDuplicateEntryError(ErrUserNotFound) {
		t.Fatal("ErrUserNotFound should not be a duplicate entry error")
	}
	if !isDuplicateEntryError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}) {
		t.Fatal("MySQL 1062 should be a duplicate entry error")
	}
	if isDuplicateEntryError(&mysql.MySQLError{Number: 1045}) {
		t.Fatal("MySQL 1045 should not be a duplicate entry error")
	}
	if !isDuplicateEntryError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")) {
		t.Fatal("SQLite unique violation should be a duplicate entry error")
	}
}
