package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/metrics"
	"rotorcharter/internal/util"
	apperrors "rotorcharter/pkg/errors"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int          `json:"expiresIn"`
	User        *domain.User `json:"user"`
}

// NewUser describes an operator account to create.
type NewUser struct {
	Username string
	Email    string
	Password string
	FullName string
	IsAdmin  bool
	IsStaff  bool
}

// AuthService authenticates back-office operators.
type AuthService struct {
	db     *gorm.DB
	tokens *util.TokenIssuer
	log    *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, tokens *util.TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, log: logging.Component(log, "auth")}
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, apperrors.Validation(missingCredentials(username, password), nil)
	}

	s.log.Info("login attempt", "username", username)

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		metrics.RecordAuthAttempt(false)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Info("login failed: unknown user", "username", username)
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
		}
		return nil, apperrors.Persistence("get user", err)
	}

	if !util.CheckPassword(user.HashedPassword, password) {
		s.log.Info("login failed: invalid password", "username", username)
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
	}
	if !user.IsActive {
		s.log.Info("login failed: inactive user", "username", username)
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user account is inactive")
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		s.log.Warn("could not record last login", "username", username, "error", err)
	}
	user.LastLogin = &now

	token, err := s.tokens.GenerateToken(&user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to generate token", err)
	}

	s.log.Info("login successful", "username", username, "admin", user.IsAdmin, "staff", user.IsStaff)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.Expiry().Seconds()),
		User:        &user,
	}, nil
}

// Authenticate resolves a bearer token to an active operator.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid or expired token", err)
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", claims.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user not found")
		}
		return nil, apperrors.Persistence("get user", err)
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user account is inactive")
	}
	return &user, nil
}

// CreateUser adds an active operator account.
func (s *AuthService) CreateUser(ctx context.Context, u NewUser) (*domain.User, error) {
	username := strings.TrimSpace(u.Username)
	email := strings.ToLower(strings.TrimSpace(u.Email))
	password := strings.TrimSpace(u.Password)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if err := apperrors.Validation(missing, nil); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&domain.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
		return nil, apperrors.Persistence("check user", err)
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "username or email already registered")
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to hash password", err)
	}

	user := domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
		IsAdmin:        u.IsAdmin,
		IsStaff:        u.IsStaff || u.IsAdmin,
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		user.FullName = &name
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, apperrors.Persistence("create user", err)
	}
	s.log.Info("user created", "username", username, "id", user.ID, "admin", user.IsAdmin)
	return &user, nil
}

func missingCredentials(username, password string) []string {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	return missing
}

