package service

import (
	"context"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk-go/internal/crypto"
	"github.com/clinicdesk/clinicdesk-go/internal/model"
	"github.com/clinicdesk/clinicdesk-go/internal/repository"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(
		repository.NewUserRepository(openTestDB(t)),
		crypto.NewTokens("test-secret", time.Hour),
	)
}

func TestRegister_EmptyEmail(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "  ",
		Password: "password123",
	})

	if err != ErrEmailRequired {
		t.Errorf("expected ErrEmailRequired, got %v", err)
	}
}

func TestRegister_EmptyPassword(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "test@example.com",
		Password: "",
	})

	if err != ErrPasswordRequired {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestRegister_ReturnsTokenAndProfile(t *testing.T) {
	svc := newTestAuthService(t)

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     " Ana@Clinic.test ",
		Password:  "password123",
	})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	if resp.User == nil || resp.User.Email != "ana@clinic.test" || resp.User.DisplayName() != "Ana Silva" {
		t.Errorf("Register() User = %+v", resp.User)
	}
	claims, err := crypto.NewTokens("test-secret", time.Hour).Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if id, _ := claims.UserID(); id != resp.User.ID {
		t.Errorf("token user id = %d, want %d", id, resp.User.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	req := model.RegisterRequest{Email: "dup@clinic.test", Password: "password123"}

	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); err != ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "ana@clinic.test", Password: "password123"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	resp, err := svc.Login(ctx, model.LoginRequest{Email: "ANA@clinic.test", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Error("Login() returned empty token")
	}

	if _, err := svc.Login(ctx, model.LoginRequest{Email: "ana@clinic.test", Password: "nope"}); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, model.LoginRequest{Email: "who@clinic.test", Password: "x"}); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}
