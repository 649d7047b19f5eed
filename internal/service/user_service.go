package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// DTOs for Request validation
type RegisterUserRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required"`
	FullName      string `json:"full_name" binding:"required"`
	Password      string `json:"password" binding:"required,min=6"`
	Role          string `json:"role" binding:"required"`
	AadhaarNumber string `json:"aadhaar_number"`
	Address       string `json:"address"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	FullName      string    `json:"full_name"`
	Role          string    `json:"role"`
	AadhaarNumber string    `json:"aadhaar_number,omitempty"`
	Address       string    `json:"address,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     string    `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
}

// JWTSigner abstracts token signing so tests can inject a fixed secret.
type JWTSigner interface {
	Secret() []byte
}

type envSigner struct {
	secret []byte
}

func NewJWTSigner(secret string) JWTSigner {
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return &envSigner{secret: []byte(secret)}
}

func (s *envSigner) Secret() []byte { return s.secret }

// UserService defines the interface for business logic related to User
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, userID string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo   repository.UserRepository
	signer JWTSigner
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, signer JWTSigner) UserService {
	return &userService{repo: repo, signer: signer}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleVictim || role == model.RoleOfficial || role == model.RoleAdmin
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Phone:         user.Phone,
		FullName:      user.FullName,
		Role:          user.Role,
		AadhaarNumber: user.AadhaarNumber,
		Address:       user.Address,
		IsActive:      user.IsActive,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	if !validateRole(req.Role) {
		return nil, apperror.Wrap(apperror.ErrValidation, "register user",
			fmt.Errorf("invalid role: must be victim, official, or admin"))
	}

	if req.AadhaarNumber != "" && len(req.AadhaarNumber) != 12 {
		return nil, apperror.Wrap(apperror.ErrValidation, "register user",
			fmt.Errorf("aadhaar number must be 12 digits"))
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Wrap(apperror.ErrConflict, "register user",
			fmt.Errorf("email already registered"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:         req.Email,
		Phone:         req.Phone,
		FullName:      req.FullName,
		Password:      string(hashedPassword),
		Role:          req.Role,
		AadhaarNumber: req.AadhaarNumber,
		Address:       req.Address,
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "login",
			fmt.Errorf("invalid email or password"))
	}

	if !user.IsActive {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "login",
			fmt.Errorf("account is deactivated"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "login",
			fmt.Errorf("invalid email or password"))
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token: the presented token is revoked together
// with any siblings, and a fresh pair is issued.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	rt, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "refresh token",
			fmt.Errorf("invalid refresh token"))
	}

	if time.Now().After(rt.ExpiresAt) {
		_ = s.repo.DeleteRefreshTokensForUser(ctx, rt.UserID)
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "refresh token",
			fmt.Errorf("refresh token expired"))
	}

	if !rt.User.IsActive {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "refresh token",
			fmt.Errorf("account is deactivated"))
	}

	if err := s.repo.DeleteRefreshTokensForUser(ctx, rt.UserID); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	user := rt.User
	return s.issueTokens(ctx, &user)
}

func (s *userService) Logout(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return apperror.Wrap(apperror.ErrValidation, "logout",
			fmt.Errorf("invalid user id: %w", err))
	}
	return s.repo.DeleteRefreshTokensForUser(ctx, uid)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, apperror.Wrap(apperror.ErrValidation, "update user",
				fmt.Errorf("invalid role: must be victim, official, or admin"))
		}
		user.Role = req.Role
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, apperror.Wrap(apperror.ErrConflict, "update user",
				fmt.Errorf("email already registered"))
		}
		user.Email = req.Email
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// --- token helpers ---

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	})

	accessToken, err := token.SignedString(s.signer.Secret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := s.repo.StoreRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *mapToResponse(user),
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
