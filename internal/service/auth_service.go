// Package service contains the application business logic.
package service

import (
	"context"
	"fmt"
	"math/rand"

	"ripple/internal/auth"
	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/validation"
)

// AuthService handles account lifecycle: registration, login, profile and
// password management.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

// NewAuthService creates an AuthService backed by the given repository and
// token manager.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// RegisterInput carries the fields accepted by Register.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// LoginInput carries the credentials accepted by Login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput carries the fields accepted by UpdateProfile. ImageURL is
// a pointer so that an explicitly empty value clears the stored image while an
// absent field leaves it untouched.
type UpdateProfileInput struct {
	UserID   uint
	Username string
	ImageURL *string
}

// ChangePasswordInput carries the fields accepted by ChangePassword.
type ChangePasswordInput struct {
	UserID          uint
	CurrentPassword string
	NewPassword     string
}

// AuthResult bundles a fresh token with the authenticated user.
type AuthResult struct {
	Token string
	User  *models.User
}

// Register creates a new account and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email and password are required")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError("Please provide a valid email address")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError("Password must be at least 6 characters")
	}

	// Email is checked before username so a request failing both reports the
	// email conflict.
	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("An account already exists with this email")
	}

	existing, err = s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("This username is already taken")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = defaultAvatarURL()
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		ImageURL: imageURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// produce the same error so the response never reveals which part failed.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if !auth.CheckPassword(in.Password, user.Password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

// GetCurrentUser loads the account behind an authenticated request.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the username and/or profile image of an account.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Username == "" && in.ImageURL == nil {
		return nil, models.NewValidationError("At least one of username or image_url is required")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		owner, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		// Keeping your own username is not a conflict.
		if owner != nil && owner.ID != in.UserID {
			return nil, models.NewConflictError("This username is already taken")
		}
		user.Username = in.Username
	}
	if in.ImageURL != nil {
		user.ImageURL = *in.ImageURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword verifies the current password and replaces it with a new one.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return models.NewValidationError("Current and new password are required")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError("New password must be at least 6 characters")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(in.CurrentPassword, user.Password) {
		return models.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return models.NewInternalError(err)
	}

	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// defaultAvatarURL picks a random stock avatar for accounts registered
// without an image.
func defaultAvatarURL() string {
	//nolint:gosec // Not security sensitive, just avatar variety
	return fmt.Sprintf("https://i.pravatar.cc/150?img=%d", rand.Intn(49)+1)
}
