package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/service"
	"unimind_backend/internal/testutil"
	"unimind_backend/internal/util"
)

func strPtr(s string) *string { return &s }

func newAuthService(t *testing.T) (*service.AuthService, *model.User, *model.User) {
	t.Helper()
	db := testutil.DB(t)
	svc := service.NewAuthService(repository.NewUserRepository(db), &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	})
	ada := &model.User{Name: "Ada", Email: "ada@example.com", Password: "secret123"}
	bob := &model.User{Name: "Bob", Email: "bob@example.com", Password: "secret123"}
	for _, u := range []*model.User{ada, bob} {
		if err := svc.Register(context.Background(), u); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return svc, ada, bob
}

func TestUpdateProfile(t *testing.T) {
	svc, ada, _ := newAuthService(t)
	ctx := context.Background()

	got, err := svc.UpdateProfile(ctx, ada.ID, service.UpdateProfileInput{
		Name:     strPtr("  Ada L. "),
		Email:    strPtr(" ADA.L@Example.com "),
		Timezone: strPtr("Europe/London"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Name != "Ada L." || got.Email != "ada.l@example.com" || got.Timezone != "Europe/London" {
		t.Errorf("profile = %+v", got)
	}

	// omitted fields stay as they are
	got, err = svc.UpdateProfile(ctx, ada.ID, service.UpdateProfileInput{Name: strPtr("Ada")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "ada.l@example.com" || got.Timezone != "Europe/London" {
		t.Errorf("untouched fields changed: %+v", got)
	}

	if _, _, err := svc.Login(ctx, "ada.l@example.com", "secret123"); err != nil {
		t.Errorf("login with the new email: %v", err)
	}
}

func TestUpdateProfileRejects(t *testing.T) {
	svc, ada, bob := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   service.UpdateProfileInput
		want error
	}{
		{"email taken", service.UpdateProfileInput{Email: strPtr("BOB@example.com")}, util.ErrEmailRegistered},
		{"blank name", service.UpdateProfileInput{Name: strPtr("  ")}, util.ErrInvalidInput},
		{"blank email", service.UpdateProfileInput{Email: strPtr("")}, util.ErrInvalidInput},
		{"unknown timezone", service.UpdateProfileInput{Timezone: strPtr("Mars/Olympus")}, util.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdateProfile(ctx, ada.ID, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	// same email in a different case is not a conflict with yourself
	if _, err := svc.UpdateProfile(ctx, bob.ID, service.UpdateProfileInput{Email: strPtr("Bob@Example.com")}); err != nil {
		t.Errorf("re-saving own email: %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, 9999, service.UpdateProfileInput{Name: strPtr("x")}); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("missing user err = %v", err)
	}
	profile, err := svc.Profile(ctx, ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "Ada" || profile.Email != "ada@example.com" {
		t.Errorf("rejected updates were applied: %+v", profile)
	}
}
