package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/mail"
	"github.com/umairdev1/project-management-tool/internal/metrics"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

const (
	resetTokenTTL = time.Hour

	// ForgotPasswordMessage is returned whether or not the account exists.
	ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"
)

// AuthService owns credentials, token issuance and the password reset flow.
// It keeps no user state between calls.
type AuthService struct {
	db         *gorm.DB
	iss        *auth.Issuer
	mailer     mail.Mailer
	activity   *ActivityService
	adminEmail string
	now        func() time.Time
}

func NewAuthService(db *gorm.DB, iss *auth.Issuer, mailer mail.Mailer, activity *ActivityService) *AuthService {
	if mailer == nil {
		mailer = mail.LogMailer{}
	}
	return &AuthService{db: db, iss: iss, mailer: mailer, activity: activity, now: time.Now}
}

// WithClock replaces the time source used for reset token expiry.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// WithAdminEmail makes a registration with this address an admin account.
func (s *AuthService) WithAdminEmail(email string) *AuthService {
	s.adminEmail = normalizeEmail(email)
	return s
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.UserRole
}

// Register creates an active account and returns its first token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (auth.TokenPair, error) {
	email := normalizeEmail(in.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return auth.TokenPair{}, err
	}
	if count > 0 {
		metrics.AuthOutcome("register", "conflict")
		return auth.TokenPair{}, ErrEmailTaken
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return auth.TokenPair{}, err
	}
	role := in.Role
	if role == "" || role == models.RoleAdmin {
		role = models.RoleTeamMember
	}
	if s.adminEmail != "" && email == s.adminEmail {
		role = models.RoleAdmin
	}
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		Status:       models.UserActive,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.AuthOutcome("register", "conflict")
			return auth.TokenPair{}, ErrEmailTaken
		}
		return auth.TokenPair{}, err
	}

	s.activity.Record(ctx, activity(models.ActivityUserRegister, "registered", user.ID))
	metrics.AuthOutcome("register", "ok")
	return s.iss.IssuePair(user.ID, user.Email, string(user.Role))
}

// Login verifies credentials. Inactive accounts fail before the password is
// checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthOutcome("login", "invalid")
			return auth.TokenPair{}, ErrInvalidCredentials
		}
		return auth.TokenPair{}, err
	}
	if user.Status != models.UserActive {
		metrics.AuthOutcome("login", "inactive")
		return auth.TokenPair{}, ErrAccountInactive
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		metrics.AuthOutcome("login", "invalid")
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", s.now()).Error; err != nil {
		return auth.TokenPair{}, err
	}
	s.activity.Record(ctx, activity(models.ActivityUserLogin, "logged in", user.ID))
	metrics.AuthOutcome("login", "ok")
	return s.iss.IssuePair(user.ID, user.Email, string(user.Role))
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) (MessageResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MessageResponse{}, ErrUserNotFound
		}
		return MessageResponse{}, err
	}
	if !auth.VerifyPassword(user.PasswordHash, current) {
		return MessageResponse{}, ErrWrongPassword
	}
	hash, err := hashPassword(next)
	if err != nil {
		return MessageResponse{}, err
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
		return MessageResponse{}, err
	}
	s.activity.Record(ctx, activity(models.ActivityPasswordChange, "changed password", user.ID))
	return MessageResponse{Message: "Password changed successfully", Success: true}, nil
}

// ForgotPassword answers identically for known and unknown addresses.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (MessageResponse, error) {
	resp := MessageResponse{Message: ForgotPasswordMessage, Success: true}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return MessageResponse{}, err
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return MessageResponse{}, fmt.Errorf("generate reset token: %w", err)
	}
	expires := s.now().Add(resetTokenTTL)
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password_reset_token":   token,
		"password_reset_expires": expires,
	}).Error
	if err != nil {
		return MessageResponse{}, err
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("send password reset")
	}
	return resp, nil
}

// ResetPassword consumes a reset token. The conditional update makes the
// token single use even under concurrent requests.
func (s *AuthService) ResetPassword(ctx context.Context, token, next string) (MessageResponse, error) {
	if token == "" {
		return MessageResponse{}, ErrInvalidResetToken
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("password_reset_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MessageResponse{}, ErrInvalidResetToken
		}
		return MessageResponse{}, err
	}
	if user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(s.now()) {
		return MessageResponse{}, ErrInvalidResetToken
	}

	hash, err := hashPassword(next)
	if err != nil {
		return MessageResponse{}, err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND password_reset_token = ?", user.ID, token).
		Updates(map[string]any{
			"password_hash":          hash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if res.Error != nil {
		return MessageResponse{}, res.Error
	}
	if res.RowsAffected == 0 {
		return MessageResponse{}, ErrInvalidResetToken
	}
	s.activity.Record(ctx, activity(models.ActivityPasswordChange, "reset password", user.ID))
	return MessageResponse{Message: "Password reset successfully", Success: true}, nil
}

// RefreshToken reissues a pair for a user that still exists.
func (s *AuthService) RefreshToken(ctx context.Context, userID string) (auth.TokenPair, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, ErrUserNotFound
		}
		return auth.TokenPair{}, err
	}
	return s.iss.IssuePair(user.ID, user.Email, string(user.Role))
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != models.UserActive {
		return nil, ErrAccountInactive
	}
	return &user, nil
}

// Logout only acknowledges: issued tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) MessageResponse {
	s.activity.Record(ctx, activity(models.ActivityUserLogout, "logged out", userID))
	return MessageResponse{Message: "Logout successful", Success: true}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(pw string) (string, error) {
	hash, err := auth.HashPassword(pw)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", ErrInvalidInput
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
