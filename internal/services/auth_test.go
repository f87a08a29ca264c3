package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/types"
)

func newAuthService(t *testing.T, gdb *gorm.DB) AuthService {
	t.Helper()
	log := newTestLogger(t)
	return NewAuthService(gdb, log, repos.NewUserRepo(gdb, log), repos.NewUserTokenRepo(gdb, log), "test-secret", time.Hour, 24*time.Hour)
}

func registerVerified(t *testing.T, gdb *gorm.DB, svc AuthService, email, password string) *types.User {
	t.Helper()
	ctx := context.Background()
	user, err := svc.RegisterUser(ctx, "Test User", email, password)
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := svc.VerifyOTP(ctx, email, user.OTPCode); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	return user
}

func TestRegisterAndVerify(t *testing.T) {
	gdb := newTestDB(t)
	svc := newAuthService(t, gdb)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "  Ada  ", "  Ada@Example.COM ", "hunter22")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "ada@example.com" || user.Name != "Ada" {
		t.Fatalf("inputs not normalized: %+v", user)
	}
	if user.IsVerified {
		t.Fatal("fresh registration must not be verified")
	}
	if user.Password == "hunter22" {
		t.Fatal("password stored in the clear")
	}
	if len(user.OTPCode) != 6 {
		t.Fatalf("unexpected OTP code %q", user.OTPCode)
	}

	// Duplicate email is rejected regardless of case.
	if _, err := svc.RegisterUser(ctx, "Other", "ADA@example.com", "pw"); err == nil {
		t.Fatal("duplicate email accepted")
	}

	if err := svc.VerifyOTP(ctx, "ada@example.com", "000000"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("wrong OTP accepted: %v", err)
	}
	if err := svc.VerifyOTP(ctx, "ada@example.com", user.OTPCode); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	// Verifying twice is a no-op.
	if err := svc.VerifyOTP(ctx, "ada@example.com", "whatever"); err != nil {
		t.Fatalf("repeat verify errored: %v", err)
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	gdb := newTestDB(t)
	svc := newAuthService(t, gdb)
	ctx := context.Background()

	user := registerVerified(t, gdb, svc, "bob@example.com", "correct-horse")

	if _, _, err := svc.LoginUser(ctx, "bob@example.com", "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("wrong password accepted: %v", err)
	}
	if _, _, err := svc.LoginUser(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("unknown email accepted: %v", err)
	}

	access, refresh, err := svc.LoginUser(ctx, "Bob@Example.com", "correct-horse")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("login returned empty tokens")
	}

	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authed)
	if rd == nil || rd.UserID != user.ID || rd.Role != types.RoleStudent {
		t.Fatalf("unexpected request data: %+v", rd)
	}
	if rd.RefreshToken != refresh {
		t.Fatal("request data missing the paired refresh token")
	}

	if _, err := svc.SetContextFromToken(ctx, "garbage.token.here"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestLoginRequiresVerification(t *testing.T) {
	gdb := newTestDB(t)
	svc := newAuthService(t, gdb)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "Eve", "eve@example.com", "pw123456"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, _, err := svc.LoginUser(ctx, "eve@example.com", "pw123456"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("unverified login should fail with ErrInvalidCredential, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	gdb := newTestDB(t)
	svc := newAuthService(t, gdb)
	ctx := context.Background()

	registerVerified(t, gdb, svc, "carol@example.com", "pw123456")
	access, refresh, err := svc.LoginUser(ctx, "carol@example.com", "pw123456")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	newAccess, newRefresh, err := svc.RefreshUser(authed)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if newRefresh == refresh {
		t.Fatal("refresh token not rotated")
	}
	if newAccess == "" {
		t.Fatal("refresh returned empty access token")
	}

	// The old refresh token is dead after rotation.
	stale := requestdata.WithRequestData(ctx, &requestdata.RequestData{RefreshToken: refresh})
	if _, _, err := svc.RefreshUser(stale); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("rotated-out refresh token still worked: %v", err)
	}
}

func TestLogoutRemovesToken(t *testing.T) {
	gdb := newTestDB(t)
	svc := newAuthService(t, gdb)
	ctx := context.Background()

	registerVerified(t, gdb, svc, "dan@example.com", "pw123456")
	access, _, err := svc.LoginUser(ctx, "dan@example.com", "pw123456")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if err := svc.LogoutUser(authed); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}

	var count int64
	if err := gdb.Model(&types.UserToken{}).Count(&count).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("token row survived logout: %d", count)
	}
	// Logging out twice is harmless.
	if err := svc.LogoutUser(authed); err != nil {
		t.Fatalf("repeat logout errored: %v", err)
	}
}
