package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour

	// Retries before giving up on finding a free TPIN. Collisions are rare
	// (36 billion possible TPINs), so hitting this indicates a deeper fault.
	tpinMaxAttempts = 10
)

// DTOs for Request validation
type RegisterIndividualRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	NationalID string `json:"national_id" binding:"required"`
}

type RegisterBusinessRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required,min=8"`
	BusinessName string `json:"business_name" binding:"required"`
	FirstName    string `json:"first_name"` // Contact person
	LastName     string `json:"last_name"`
}

type LoginRequest struct {
	// Either TPIN or email identifies the account.
	Tpin     string `json:"tpin"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// UserResponse returns account details without exposing sensitive data
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Tpin         string    `json:"tpin"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	UserType     string    `json:"user_type"`
	Status       string    `json:"status"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	BusinessName string    `json:"business_name,omitempty"`
	LastLogin    string    `json:"last_login,omitempty"`
	CreatedAt    string    `json:"created_at"`
}

// UserService defines the interface for taxpayer registration and authentication
type UserService interface {
	RegisterIndividual(ctx context.Context, req *RegisterIndividualRequest) (*UserResponse, error)
	RegisterBusiness(ctx context.Context, req *RegisterBusinessRequest) (*UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
}

type userService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	compliance ComplianceService
	jwtSecret  []byte
}

// NewUserService returns a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	compliance ComplianceService,
	jwtSecret []byte,
) UserService {
	return &userService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		compliance: compliance,
		jwtSecret:  jwtSecret,
	}
}

// Helper: parse model to standard json API response
func mapToUserResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:           user.ID,
		Tpin:         user.Tpin,
		Email:        user.Email,
		Phone:        user.Phone,
		UserType:     user.UserType,
		Status:       user.Status,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		BusinessName: user.BusinessName,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLogin != nil {
		resp.LastLogin = user.LastLogin.Format(time.RFC3339)
	}
	return resp
}

// --- Registration ---

func (s *userService) RegisterIndividual(ctx context.Context, req *RegisterIndividualRequest) (*UserResponse, error) {
	user := &model.User{
		Email:      req.Email,
		Phone:      req.Phone,
		UserType:   model.UserTypeIndividual,
		Status:     model.AccountActive,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NationalID: req.NationalID,
	}
	return s.register(ctx, user, req.Password)
}

func (s *userService) RegisterBusiness(ctx context.Context, req *RegisterBusinessRequest) (*UserResponse, error) {
	user := &model.User{
		Email:        req.Email,
		Phone:        req.Phone,
		UserType:     model.UserTypeBusiness,
		Status:       model.AccountActive,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BusinessName: req.BusinessName,
	}
	return s.register(ctx, user, req.Password)
}

func (s *userService) register(ctx context.Context, user *model.User, password string) (*UserResponse, error) {
	if _, err := s.userRepo.FindByEmail(ctx, user.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.ID = uuid.New()

	tpin, err := s.generateTpin(ctx)
	if err != nil {
		return nil, err
	}
	user.Tpin = tpin

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return err
		}

		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &user.ID,
			Action:     model.ActionRegisterTaxpayer,
			EntityID:   user.Tpin,
			EntityName: displayName(user),
			Details:    auditDetails(map[string]any{"user_type": user.UserType, "email": user.Email}),
		}); auditErr != nil {
			log.Printf("Failed to write audit log for registration %s: %v", user.ID, auditErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email or phone already registered", ErrValidation)
		}
		return nil, fmt.Errorf("failed to register taxpayer: %w", err)
	}

	if err := s.compliance.EnsureScore(ctx, user.ID); err != nil {
		log.Printf("Failed to initialize compliance score for %s: %v", user.ID, err)
	}

	return mapToUserResponse(user), nil
}

// generateTpin produces a unique Taxpayer Identification Number: nine digits
// followed by one uppercase letter.
func (s *userService) generateTpin(ctx context.Context) (string, error) {
	for attempt := 0; attempt < tpinMaxAttempts; attempt++ {
		digits := make([]byte, 9)
		for i := range digits {
			digits[i] = byte('0' + rand.Intn(10))
		}
		tpin := string(digits) + string(byte('A'+rand.Intn(26)))

		exists, err := s.userRepo.ExistsByTpin(ctx, tpin)
		if err != nil {
			return "", fmt.Errorf("failed to check TPIN uniqueness: %w", err)
		}
		if !exists {
			return tpin, nil
		}
	}
	return "", errors.New("failed to allocate a unique TPIN")
}

func displayName(user *model.User) string {
	if user.BusinessName != "" {
		return user.BusinessName
	}
	return user.FirstName + " " + user.LastName
}

// --- Authentication ---

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user *model.User
	var err error
	switch {
	case req.Tpin != "":
		user, err = s.userRepo.FindByTpin(ctx, req.Tpin)
	case req.Email != "":
		user, err = s.userRepo.FindByEmail(ctx, req.Email)
	default:
		return nil, fmt.Errorf("%w: tpin or email is required", ErrValidation)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status != model.AccountActive {
		return nil, fmt.Errorf("%w: account is %s", ErrForbidden, user.Status)
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.Printf("Failed to record last login for %s: %v", user.ID, err)
	}

	if auditErr := s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:   &user.ID,
		Action:   model.ActionLogin,
		EntityID: user.Tpin,
	}); auditErr != nil {
		log.Printf("Failed to write audit log for login %s: %v", user.ID, auditErr)
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	stored, err := s.tokenRepo.FindValid(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != model.AccountActive {
		return nil, fmt.Errorf("%w: account is %s", ErrForbidden, user.Status)
	}

	// Rotate: the presented token is single-use.
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		log.Printf("Failed to revoke refresh token for %s: %v", user.ID, err)
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: taxpayer", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load taxpayer: %w", err)
	}
	return mapToUserResponse(user), nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*AuthResponse, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.UserType,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	})
	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken := uuid.NewString()
	err = s.tokenRepo.Create(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(refreshTokenTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *mapToUserResponse(user),
	}, nil
}
