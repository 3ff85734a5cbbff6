/*
Package auth handles admin accounts and bearer tokens.

PURPOSE:
  Admins register with a username and password, log in to obtain an HS256
  JWT, and present it as "Authorization: Bearer <token>" on protected routes.
  Passwords are stored as bcrypt hashes only.

TOKEN LIFETIMES:
  register  1 hour (the token handed back right after sign-up)
  login     7 days

SEE ALSO:
  - token.go: JWT issue / verify
  - api/middleware.go: Bearer token middleware
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("username or password error")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrMissingCredentials = errors.New("username and password are required")
)

// =============================================================================
// ADMIN
// =============================================================================

type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminStore persists admins. Getters return (nil, nil) when absent.
type AdminStore interface {
	CreateAdmin(ctx context.Context, a Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)
	GetAdmin(ctx context.Context, id string) (*Admin, error)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// =============================================================================
// SERVICE
// =============================================================================

const (
	RegisterTokenTTL = time.Hour
	LoginTokenTTL    = 7 * 24 * time.Hour
)

// Service ties the admin store to token issuance.
type Service struct {
	Store  AdminStore
	Tokens *Tokens
	Now    func() time.Time
}

func NewService(store AdminStore, tokens *Tokens) *Service {
	return &Service{Store: store, Tokens: tokens, Now: time.Now}
}

// Register creates a new admin and returns it with a short-lived token.
func (s *Service) Register(ctx context.Context, username, password string) (*Admin, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrMissingCredentials
	}
	existing, err := s.Store.GetAdminByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil, "", ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	admin := Admin{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.Now(),
	}
	if err := s.Store.CreateAdmin(ctx, admin); err != nil {
		return nil, "", fmt.Errorf("create admin: %w", err)
	}

	token, err := s.Tokens.Issue(admin, RegisterTokenTTL)
	if err != nil {
		return nil, "", err
	}
	return &admin, token, nil
}

// Login checks credentials and returns a week-long token.
func (s *Service) Login(ctx context.Context, username, password string) (*Admin, string, error) {
	admin, err := s.Store.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", fmt.Errorf("lookup admin: %w", err)
	}
	if admin == nil || !CheckPassword(admin.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.Tokens.Issue(*admin, LoginTokenTTL)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

// Verify resolves a token to the admin it was issued for.
func (s *Service) Verify(ctx context.Context, token string) (*Admin, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	admin, err := s.Store.GetAdmin(ctx, claims.AdminID)
	if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}
