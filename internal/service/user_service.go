package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"storetrack/internal/imagestore"
	"storetrack/internal/middleware"
	"storetrack/internal/model"
	"storetrack/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Username        string `form:"username" json:"username" binding:"required,min=3,max=64"`
	Email           string `form:"email" json:"email" binding:"required,email,max=120"`
	Password        string `form:"password" json:"password" binding:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" binding:"required"`
	FirstName       string `form:"first_name" json:"first_name" binding:"omitempty,max=64"`
	LastName        string `form:"last_name" json:"last_name" binding:"omitempty,max=64"`
}

type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Username    string `form:"username" json:"username" binding:"omitempty,min=3,max=64"`
	Email       string `form:"email" json:"email" binding:"omitempty,email,max=120"`
	FirstName   string `form:"first_name" json:"first_name" binding:"omitempty,max=64"`
	LastName    string `form:"last_name" json:"last_name" binding:"omitempty,max=64"`
	OldPassword string `form:"old_password" json:"old_password" binding:"required,min=8"`
	NewPassword string `form:"new_password" json:"new_password" binding:"omitempty,min=8"`
	DeleteImage bool   `form:"delete_image" json:"delete_image"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID            uint     `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	ImageFilename string   `json:"image_filename"`
	CreatedAt     string   `json:"created_at"`
	Permissions   []string `json:"permissions,omitempty"`
}

// UserService defines the business logic around users and authentication.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error

	GetUser(ctx context.Context, id uint) (*UserResponse, error)
	GetMe(ctx context.Context, id uint) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id uint, req UpdateUserRequest, image *multipart.FileHeader) (*UserResponse, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo      repository.UserRepository
	groupRepo repository.GroupRepository
	auditRepo repository.AuditRepository
	images    *imagestore.Store
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	groupRepo repository.GroupRepository,
	auditRepo repository.AuditRepository,
	images *imagestore.Store,
) UserService {
	return &userService{
		repo:      repo,
		groupRepo: groupRepo,
		auditRepo: auditRepo,
		images:    images,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapUser(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		ImageFilename: imagestore.DefaultUserImage(),
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
	if user.FirstName != nil {
		res.FirstName = *user.FirstName
	}
	if user.LastName != nil {
		res.LastName = *user.LastName
	}
	if user.ImageFilename != nil && imagestore.IsValidName(*user.ImageFilename) {
		res.ImageFilename = *user.ImageFilename
	}
	return res
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: username '%s'", ErrConflict, req.Username)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email '%s'", ErrConflict, req.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    optional(req.FirstName),
		LastName:     optional(req.LastName),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit(ctx, &user.ID, model.ActionCreateUser, user.ID, user.Username, "")
	return mapUser(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.repo.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenResponse{Token: tokenString, RefreshToken: refresh.Token}, nil
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	rt, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if time.Now().After(rt.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, rt.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Rotate: the old refresh token is spent.
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return mapUser(user), nil
}

// GetMe returns the caller's profile with the effective permission set,
// i.e. the union over all permissions of all roles of all groups.
func (s *userService) GetMe(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}

	groups, err := s.groupRepo.ListForUser(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	perms := make([]string, 0)
	for _, g := range groups {
		for _, r := range g.Roles {
			for _, p := range r.Permissions {
				if !seen[p.Name] {
					seen[p.Name] = true
					perms = append(perms, p.Name)
				}
			}
		}
	}

	res := mapUser(user)
	res.Permissions = perms
	return res, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapUser(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, req UpdateUserRequest, image *multipart.FileHeader) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return nil, fmt.Errorf("%w: old password is incorrect", ErrValidation)
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, fmt.Errorf("%w: username '%s'", ErrConflict, req.Username)
		}
		user.Username = req.Username
	}
	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, fmt.Errorf("%w: email '%s'", ErrConflict, req.Email)
		}
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = optional(req.FirstName)
	}
	if req.LastName != "" {
		user.LastName = optional(req.LastName)
	}
	if req.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	oldImage := ""
	if user.ImageFilename != nil {
		oldImage = *user.ImageFilename
	}

	var staged *imagestore.Staged
	if image != nil {
		staged, err = s.images.Stage(imagestore.KindUser, image)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		defer staged.Discard()
		user.ImageFilename = &staged.Filename
	} else if req.DeleteImage {
		user.ImageFilename = nil
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	// Row is committed; now the filesystem may change.
	if staged != nil {
		if err := staged.Commit(); err != nil {
			return nil, fmt.Errorf("failed to persist image: %w", err)
		}
	}
	if (staged != nil || req.DeleteImage) && oldImage != "" && oldImage != imagestore.DefaultUserImage() {
		_ = s.images.Delete(imagestore.KindUser, oldImage)
	}

	return mapUser(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if user.ImageFilename != nil && *user.ImageFilename != imagestore.DefaultUserImage() {
		_ = s.images.Delete(imagestore.KindUser, *user.ImageFilename)
	}

	s.audit(ctx, nil, model.ActionDeleteUser, id, user.Username, "")
	return nil
}

func (s *userService) audit(ctx context.Context, userID *uint, action string, entityID uint, name, details string) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   fmt.Sprintf("%d", entityID),
		EntityName: name,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}

// IsRecordNotFound reports whether err is the underlying gorm missing-row
// error, for handlers that talk to repositories directly.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
