package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	userRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/security"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

var (
	// ErrInvalidCredentials is returned for a bad email/password pair. The
	// same error covers unknown accounts so login cannot probe for emails.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// ErrWeakPassword is returned when a signup password is too short.
	ErrWeakPassword = fmt.Errorf("password must be at least 8 characters")
)

// AuthService handles account signup, login, and session token issuance.
type AuthService struct {
	userRepo *userRepo.SQLUserRepository
	logger   *logging.ChanneledLogger
}

// NewAuthService creates a new auth service with its dependencies.
func NewAuthService(repo *userRepo.SQLUserRepository, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		userRepo: repo,
		logger:   logger,
	}
}

// Signup creates an account and returns it with a session token.
func (s *AuthService) Signup(name, emailAddr, password string) (*user.User, string, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, "", ErrWeakPassword
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Name:         strings.TrimSpace(name),
		Email:        emailAddr,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the account with a session token.
func (s *AuthService) Login(emailAddr, password string) (*user.User, string, error) {
	u, err := s.userRepo.FindByEmail(emailAddr)
	if err != nil {
		if err == userRepo.ErrUserNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !security.CheckPassword(u.PasswordHash, password) {
		s.logger.Auth().Warn("Failed login attempt", "email", emailAddr)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	s.logger.Auth().Info("User logged in", "userId", u.ID)
	return u, token, nil
}

// Authenticate resolves a session token to its account.
func (s *AuthService) Authenticate(token string) (*user.User, error) {
	claims, err := security.ValidateJWT(token, config.JWTSecret)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, ok := security.UserIDFromClaims(claims)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	u, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) issueToken(u *user.User) (string, error) {
	token, err := security.GenerateSessionToken(u.ID, u.Email, config.JWTSecret, config.SessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}
