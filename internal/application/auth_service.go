package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	repo "github.com/oksasatya/galactic-postbox/internal/domain/repository"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

// TokenRevoker stores revoked token ids. *helpers.TokenDenylist implements it.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// DirectoryIndexer receives newly registered addresses.
type DirectoryIndexer interface {
	IndexUser(ctx context.Context, u *entity.User) error
}

// AddressInput picks a catalog address, or claims a new one when IsCustom is set.
// Movie is ignored; it comes from the catalog or is "Custom".
type AddressInput struct {
	Address  string `json:"address" binding:"required"`
	Movie    string `json:"movie"`
	IsCustom bool   `json:"isCustom"`
}

// RegisterInput is the registration request body.
type RegisterInput struct {
	Username string       `json:"username" binding:"required,min=3,alphanum"`
	Email    string       `json:"email" binding:"required,email"`
	Password string       `json:"password" binding:"required,pwd"`
	Address  AddressInput `json:"address"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// AuthService registers users, issues tokens and revokes them on logout.
type AuthService struct {
	Users     repo.UserRepository
	Addresses repo.AddressRepository
	JWT       *helpers.JWTManager
	Revoker   TokenRevoker     // nil: logout is client-side only
	Directory DirectoryIndexer // nil: no search index
	Logger    *logrus.Logger
}

// NewAuthService builds an AuthService. revoker and directory may be nil.
func NewAuthService(users repo.UserRepository, addresses repo.AddressRepository, jwt *helpers.JWTManager, revoker TokenRevoker, directory DirectoryIndexer, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &AuthService{
		Users:     users,
		Addresses: addresses,
		JWT:       jwt,
		Revoker:   revoker,
		Directory: directory,
		Logger:    logger,
	}
}

var conflictMessages = map[string]string{
	"username": "Username already taken",
	"email":    "Email already registered",
	"address":  "Address already taken",
}

func conflictError(field string) *Error {
	msg, ok := conflictMessages[field]
	if !ok {
		msg = "Already exists"
	}
	return &Error{Kind: ErrConflict, Message: msg}
}

// Register validates in, resolves the address against the catalog and
// creates the user. Taken usernames, emails and addresses are ErrConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address.Address = strings.TrimSpace(in.Address.Address)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	entry, err := s.Addresses.GetByAddress(ctx, in.Address.Address)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	catalogued := err == nil && !entry.IsCustom && entry.IsActive

	addr := entity.UserAddress{Address: in.Address.Address, Movie: entity.CustomMovie, IsCustom: true}
	switch {
	case catalogued:
		// a "custom" address that names a catalog entry is that entry
		addr = entity.UserAddress{Address: entry.Address, Movie: entry.Movie}
	case !in.Address.IsCustom:
		return nil, fieldError("address.address", "Address is not in the catalog")
	}

	field, err := s.Users.FindConflict(ctx, in.Username, in.Email, addr.Address)
	if err != nil {
		return nil, err
	}
	if field != "" {
		return nil, conflictError(field)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Username: in.Username, Email: in.Email, PasswordHash: hash, Address: addr}
	if err := s.Users.Create(ctx, u); err != nil {
		// a concurrent registration won the unique index
		var dup *repo.DuplicateError
		if errors.As(err, &dup) {
			return nil, conflictError(dup.Field)
		}
		return nil, err
	}

	if s.Directory != nil {
		if err := s.Directory.IndexUser(ctx, u); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("directory index failed")
		}
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "custom_address": addr.IsCustom}).Info("user registered")
	return s.issue(u)
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrAuth, "Invalid credentials")
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, in.Password) {
		return nil, newError(ErrAuth, "Invalid credentials")
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	token, claims, err := s.JWT.Generate(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

// Verify checks signature, expiry and revocation. A denylist lookup failure
// is logged and the token accepted.
func (s *AuthService) Verify(ctx context.Context, token string) (*helpers.Claims, error) {
	claims, err := s.JWT.Parse(token)
	if err != nil {
		return nil, newError(ErrAuth, "Token is not valid")
	}
	if s.Revoker != nil && claims.ID != "" {
		revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.Logger.WithError(err).Warn("token denylist lookup failed")
		} else if revoked {
			return nil, newError(ErrAuth, "Token has been revoked")
		}
	}
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrAuth, "User not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *helpers.Claims) error {
	if s.Revoker == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.Revoker.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
}
