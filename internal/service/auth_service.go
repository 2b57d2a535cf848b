package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/dto"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/repository"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/auth"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotApproved    = errors.New("account is pending approval")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
)

type AuthService struct {
	userRepo   *repository.UserRepository
	deviceRepo *repository.DeviceRepository
	resetRepo  *repository.PasswordResetRepository
	jwtManager *auth.JWTManager
	mailer     Mailer
	cfg        *config.AuthConfig
	logger     *zap.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	deviceRepo *repository.DeviceRepository,
	resetRepo *repository.PasswordResetRepository,
	jwtManager *auth.JWTManager,
	mailer Mailer,
	cfg *config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		resetRepo:  resetRepo,
		jwtManager: jwtManager,
		mailer:     mailer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Register creates a pending account. New accounts must be approved before
// they can sign in.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, ErrUserExists
	}
	if existing, _ := s.userRepo.GetByUsername(ctx, req.Username); existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashedPassword,
		Approved:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered, awaiting approval",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return &dto.UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Approved: user.Approved,
	}, nil
}

// Login authenticates by username and registers the calling device. When the
// account already holds the maximum number of devices, the least recently
// seen one is evicted.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Approved {
		return nil, ErrUserNotApproved
	}

	if err := s.registerDevice(ctx, user.ID, req.DeviceName); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) registerDevice(ctx context.Context, userID uuid.UUID, deviceName string) error {
	if deviceName == "" {
		deviceName = "unknown device"
	}

	devices, err := s.deviceRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, d := range devices {
		if d.DeviceName == deviceName {
			return s.deviceRepo.Touch(ctx, d.ID)
		}
	}

	// ListByUser orders by last_seen_at ascending, so devices[0] is the
	// eviction candidate.
	if len(devices) >= s.cfg.MaxDevices {
		evicted := devices[0]
		if err := s.deviceRepo.Delete(ctx, evicted.ID); err != nil {
			return err
		}
		s.logger.Info("Evicted least recently seen device",
			zap.String("user_id", userID.String()),
			zap.String("device", evicted.DeviceName),
		)
	}

	now := time.Now()
	return s.deviceRepo.Create(ctx, &models.Device{
		ID:         uuid.New(),
		UserID:     userID,
		DeviceName: deviceName,
		LastSeenAt: now,
		CreatedAt:  now,
	})
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.Approved {
		return nil, ErrUserNotApproved
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID.String(), user.Username, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		User: dto.UserResponse{
			ID:       user.ID.String(),
			Username: user.Username,
			Email:    user.Email,
			Approved: user.Approved,
		},
	}, nil
}

// RequestPasswordReset emails a one-time code to the account. An unknown
// email is not an error, so callers cannot probe which addresses exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("Password reset requested for unknown email")
		return nil
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	now := time.Now()
	reset := &models.PasswordReset{
		ID:        uuid.New(),
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.OTPExpiry),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	body := fmt.Sprintf("Mã xác nhận đặt lại mật khẩu của bạn là %s. Mã có hiệu lực trong %d phút.",
		code, int(s.cfg.OTPExpiry.Minutes()))
	return s.mailer.Send(ctx, user.Email, "PedMed - Đặt lại mật khẩu", body)
}

// ResetPassword consumes a valid code and replaces the account password.
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return ErrInvalidResetCode
	}

	reset, err := s.resetRepo.GetActive(ctx, user.ID, req.Code)
	if err != nil {
		return ErrInvalidResetCode
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}
	return s.resetRepo.MarkUsed(ctx, reset.ID)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
