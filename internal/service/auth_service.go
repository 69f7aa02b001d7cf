package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/mail"
	"jualapa/internal/model"
	"jualapa/internal/oauth"
	"jualapa/internal/repository"
)

// RegisterInput carries the fields of a local sign-up.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (sessionToken string, user *model.User, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, token string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	GoogleAuthURL(state string) string
	LoginWithGoogle(ctx context.Context, code string) (sessionToken string, user *model.User, err error)
}

type authService struct {
	users    repository.UserRepository
	tokens   *OneTimeTokens
	jwt      *auth.JWTService
	sender   mail.Sender
	composer *mail.Composer
	google   oauth.Provider
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	tokens *OneTimeTokens,
	jwtService *auth.JWTService,
	sender mail.Sender,
	composer *mail.Composer,
	google oauth.Provider,
) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		jwt:      jwtService,
		sender:   sender,
		composer: composer,
		google:   google,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account, or refreshes a pending unverified one,
// and emails a verification link.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsVerified || user.IsOAuth {
			return nil, apperrors.ErrUserAlreadyExists
		}
		user.Username = in.Username
		user.Password = in.Password
		if in.Role == model.RoleAdmin {
			user.Role = model.RoleAdmin
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		role := in.Role
		if role == "" {
			role = model.RoleUser
		}
		user = &model.User{
			Username: in.Username,
			Email:    email,
			Password: in.Password,
			Role:     role,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrUserAlreadyExists
			}
			return nil, fmt.Errorf("create user: %w", err)
		}
	default:
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	token, err := s.tokens.MintFor(ctx, user, VerificationTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sendVerification(ctx, user, token); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail consumes a verification token and marks its user verified.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	user, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	user.IsVerified = true
	if err := s.tokens.Spend(ctx, user, token); err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("verify user: %w", err)
	}
	return user, nil
}

// ResendVerification mints a new verification token, replacing any pending one.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperrors.ErrAlreadyVerified
	}
	token, err := s.tokens.MintFor(ctx, user, VerificationTokenTTL)
	if err != nil {
		return err
	}
	return s.sendVerification(ctx, user, token)
}

// Login checks a local password and issues a session token. Google accounts
// are rejected before the password is looked at.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user.IsOAuth {
		return "", nil, apperrors.ErrWrongLoginMethod
	}
	if !user.IsVerified {
		return "", nil, apperrors.ErrEmailNotVerified
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// RequestPasswordReset emails a reset link to a verified local account.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsOAuth {
		return apperrors.ErrFederatedAccount
	}
	if !user.IsVerified {
		return apperrors.ErrUserNotFound
	}

	token, err := s.tokens.MintFor(ctx, user, ResetTokenTTL)
	if err != nil {
		return err
	}
	msg, err := s.composer.ResetPasswordEmail(user.Username, token)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, user.Email, msg.Subject, msg.HTML); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, err)
	}
	return nil
}

// ValidateResetToken checks a reset token without consuming it.
func (s *authService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.consumeResetToken(ctx, token)
	return err
}

// ConfirmPasswordReset replaces the password and clears the token in one
// conditional update.
func (s *authService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	user, err := s.consumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	user.Password = newPassword
	if err := s.tokens.Spend(ctx, user, token); err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// consumeResetToken only accepts tokens held by verified local accounts, so a
// pending verification link can never be used to set a password.
func (s *authService) consumeResetToken(ctx context.Context, token string) (*model.User, error) {
	user, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.IsOAuth {
		return nil, apperrors.ErrFederatedAccount
	}
	if !user.IsVerified {
		return nil, apperrors.ErrTokenNotFound
	}
	return user, nil
}

// GoogleAuthURL returns the provider consent page bound to state.
func (s *authService) GoogleAuthURL(state string) string {
	return s.google.AuthCodeURL(state)
}

// LoginWithGoogle completes the authorization-code grant and reconciles the
// profile with local accounts. A password account with the same email is never taken over.
func (s *authService) LoginWithGoogle(ctx context.Context, code string) (string, *model.User, error) {
	if code == "" {
		return "", nil, apperrors.NewValidationError("missing authorization code")
	}
	profile, err := s.google.FetchProfile(ctx, code)
	if err != nil {
		return "", nil, err
	}

	email := normalizeEmail(profile.Email)
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.IsOAuth {
			return "", nil, apperrors.ErrEmailRegisteredLocally
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &model.User{
			Username:   googleUsername(profile),
			Email:      email,
			Role:       model.RoleUser,
			IsOAuth:    true,
			IsVerified: profile.VerifiedEmail,
			Picture:    profile.Picture,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("create federated user: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	return s.startSession(ctx, user)
}

func googleUsername(p *oauth.Profile) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(p.Email, "@")
	return local
}

func (s *authService) startSession(ctx context.Context, user *model.User) (string, *model.User, error) {
	token, err := s.jwt.GenerateSessionToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now
	return token, user, nil
}

func (s *authService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authService) sendVerification(ctx context.Context, user *model.User, token string) error {
	msg, err := s.composer.VerificationEmail(user.Username, token)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, user.Email, msg.Subject, msg.HTML); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, err)
	}
	return nil
}
