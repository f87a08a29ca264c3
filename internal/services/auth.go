package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/types"
	"github.com/skillstream/skillstream-backend/internal/utils"
)

const otpTTL = 10 * time.Minute

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, name, email, password string) (*types.User, error)
	VerifyOTP(ctx context.Context, email, code string) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           baseLog.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, name, email, password string) (*types.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}
	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, storeErr("check email", err)
	}
	if exists {
		return nil, fmt.Errorf("email is already in use")
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	code := newOTPCode()
	expires := time.Now().Add(otpTTL)
	user := &types.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Password:     hashed,
		Role:         types.RoleStudent,
		OTPCode:      code,
		OTPExpiresAt: &expires,
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return nil, storeErr("create user", err)
	}
	// Mail delivery is an external collaborator; the code is logged for dev.
	as.log.Info("OTP issued for registration", "user_id", user.ID, "otp", code)
	return user, nil
}

func (as *authService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return storeErr("load user", err)
	}
	if len(users) == 0 || users[0] == nil {
		return ErrInvalidCredential
	}
	user := users[0]
	if user.IsVerified {
		return nil
	}
	if user.OTPCode == "" || user.OTPCode != strings.TrimSpace(code) {
		return ErrInvalidCredential
	}
	if user.OTPExpiresAt == nil || user.OTPExpiresAt.Before(time.Now()) {
		return fmt.Errorf("verification code expired: %w", ErrInvalidCredential)
	}
	user.IsVerified = true
	user.OTPCode = ""
	user.OTPExpiresAt = nil
	if err := as.userRepo.Update(ctx, nil, user); err != nil {
		return storeErr("verify user", err)
	}
	return nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", "", storeErr("load user", err)
	}
	if len(users) == 0 || users[0] == nil {
		return "", "", ErrInvalidCredential
	}
	user := users[0]
	if err := utils.CheckPassword(user.Password, password); err != nil {
		return "", "", ErrInvalidCredential
	}
	if !user.IsVerified {
		return "", "", fmt.Errorf("account not verified: %w", ErrInvalidCredential)
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, ftErr := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{user.ID})
		if ftErr != nil {
			return storeErr("check user tokens", ftErr)
		}
		for _, tok := range existing {
			if tok != nil && tok.ExpiresAt.Before(time.Now()) {
				if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{tok.ID}); dErr != nil {
					return storeErr("delete expired token", dErr)
				}
			}
		}
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		row := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{row}); cErr != nil {
			return storeErr("create user token", cErr)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", fmt.Errorf("refresh token not present in request data")
	}
	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, ftErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
		if ftErr != nil {
			return storeErr("load refresh token", ftErr)
		}
		if len(found) == 0 || found[0] == nil {
			return fmt.Errorf("unknown refresh token: %w", ErrInvalidCredential)
		}
		existing := found[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
				return storeErr("delete expired token", dErr)
			}
			return fmt.Errorf("refresh token expired: %w", ErrInvalidCredential)
		}
		users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if uErr != nil {
			return storeErr("load user for refresh", uErr)
		}
		if len(users) == 0 || users[0] == nil {
			return fmt.Errorf("no user for refresh token: %w", ErrInvalidCredential)
		}
		tok, genErr := as.generateAccessToken(users[0])
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		row := &types.UserToken{
			ID:           uuid.New(),
			UserID:       existing.UserID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{row}); cErr != nil {
			return storeErr("create user token", cErr)
		}
		if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
			return storeErr("rotate refresh token", dErr)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return fmt.Errorf("token not present in request data")
	}
	found, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{rd.TokenString})
	if err != nil {
		return storeErr("load user token", err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil
	}
	if err := as.userTokenRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{found[0].ID}); err != nil {
		return storeErr("delete user token", err)
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return ctx, storeErr("load user", err)
	}
	if len(users) == 0 || users[0] == nil {
		return ctx, fmt.Errorf("unknown user in token")
	}
	var refreshToken string
	found, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if ftErr != nil {
		return ctx, storeErr("load user token", ftErr)
	}
	if len(found) > 0 && found[0] != nil {
		refreshToken = found[0].RefreshToken
	}
	rd := &requestdata.RequestData{
		TokenString:  tokenString,
		RefreshToken: refreshToken,
		UserID:       userID,
		Role:         users[0].Role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func newOTPCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand failing means the process has bigger problems; fall
		// back to a uuid-derived code rather than aborting registration.
		return uuid.New().String()[:6]
	}
	return fmt.Sprintf("%06d", n.Int64())
}
