package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

const minPasswordLen = 8

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	CurrentUser(ctx context.Context) (*types.User, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) Register(ctx context.Context, email, password, displayName string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, "", apierr.BadRequest("invalid_email", fmt.Errorf("invalid email address"))
	}
	if len(password) < minPasswordLen {
		return nil, "", apierr.BadRequest("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}

	dbc := dbctx.New(ctx)
	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, "", apierr.Conflict("email_taken", fmt.Errorf("email already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u := &types.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	}
	if err := as.userRepo.Create(dbc, u); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	tok, err := as.generateAccessToken(u)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("User registered", "user_id", u.ID)
	return u, tok, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	invalid := apierr.Unauthorized("invalid_credentials", fmt.Errorf("invalid email or password"))
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", invalid
	}

	u, err := as.userRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, "", invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", invalid
	}

	tok, err := as.generateAccessToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, pkgerrors.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", pkgerrors.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", pkgerrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid user id in token", pkgerrors.ErrUnauthorized)
	}
	sessionID, _ := uuid.Parse(claims.ID)

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		SessionID:   sessionID,
	}), nil
}

func (as *authService) CurrentUser(ctx context.Context) (*types.User, error) {
	uid := ctxutil.UserID(ctx)
	if uid == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", pkgerrors.ErrUnauthorized)
	}
	u, err := as.userRepo.GetByID(dbctx.New(ctx), uid)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", pkgerrors.ErrNotFound)
	}
	return u, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// IsUnauthorized reports whether err came from token verification.
func IsUnauthorized(err error) bool {
	return errors.Is(err, pkgerrors.ErrUnauthorized)
}
