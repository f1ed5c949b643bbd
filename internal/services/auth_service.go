package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

// AuthService covers the account flows that sit beside OTP login:
// signup with a password, password login and logout.
type AuthService interface {
	Signup(ctx context.Context, request *SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

type SignupRequest struct {
	MobileNumber string `json:"mobileno" validate:"required,mobile10"`
	OTP          string `json:"otp" validate:"required,numeric_code"`
	Name         string `json:"name" validate:"required,max=100"`
	Password     string `json:"password" validate:"required"`
}

type LoginRequest struct {
	MobileNumber string `json:"mobileno" validate:"required,mobile10"`
	Password     string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User      *models.User    `json:"user"`
	Session   *models.Session `json:"session"`
	TokenType string          `json:"token_type"`
	IsNewUser bool            `json:"is_new_user"`
}

type authService struct {
	users             interfaces.UserStore
	otp               OTPService
	sessions          SessionService
	passwordMinLength int
	clock             Clock
	logger            *logger.Logger
}

func NewAuthService(
	users interfaces.UserStore,
	otp OTPService,
	sessions SessionService,
	passwordMinLength int,
	clock Clock,
	logger *logger.Logger,
) AuthService {
	if clock == nil {
		clock = SystemClock()
	}
	return &authService{
		users:             users,
		otp:               otp,
		sessions:          sessions,
		passwordMinLength: passwordMinLength,
		clock:             clock,
		logger:            logger,
	}
}

func (s *authService) Signup(ctx context.Context, request *SignupRequest) (*AuthResponse, error) {
	mobile := utils.NormalizeMobile(request.MobileNumber)
	if !utils.IsValidMobile(mobile) {
		return nil, ErrInvalidMobile
	}
	if len(request.Password) < s.passwordMinLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.users.GetByMobile(ctx, mobile)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if existing != nil && existing.PasswordHash != "" {
		return nil, ErrUserExists
	}

	if err := s.otp.Verify(ctx, mobile, request.OTP, models.OTPPurposeSignup); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	isNew := existing == nil
	user := existing
	if isNew {
		user = &models.User{
			ID:           uuid.NewString(),
			MobileNumber: mobile,
			CreatedAt:    now,
		}
	}
	user.Name = strings.TrimSpace(request.Name)
	user.PasswordHash = hash
	user.IsVerified = true
	user.LastLoginAt = &now
	user.UpdatedAt = now

	if isNew {
		err = s.users.Create(ctx, user)
	} else {
		err = s.users.Update(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(user.ID).Info("User signed up")
	return &AuthResponse{User: user, Session: session, TokenType: "Bearer", IsNewUser: isNew}, nil
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error) {
	mobile := utils.NormalizeMobile(request.MobileNumber)

	user, err := s.users.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			s.logger.WithField("mobile", utils.MaskPhone(mobile)).Warn("Login attempt with invalid credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.PasswordHash == "" || !s.checkPassword(request.Password, user.PasswordHash) {
		s.logger.WithField("mobile", utils.MaskPhone(mobile)).Warn("Login attempt with invalid credentials")
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.WithError(err).WithUserID(user.ID).Warn("Failed to record last login")
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(user.ID).Info("User logged in successfully")
	return &AuthResponse{User: user, Session: session, TokenType: "Bearer"}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *authService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
