package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// UserStore is the slice of the user table accounts need.
type UserStore interface {
	CreateUser(name, email, passwordHash string) (*models.User, error)
	User(id string) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
}

// Accounts registers users and exchanges credentials for tokens.
type Accounts struct {
	users  UserStore
	tokens *Tokens
	logger *log.Logger
}

// NewAccounts creates an [Accounts] service.
func NewAccounts(users UserStore, tokens *Tokens, logger *log.Logger) *Accounts {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Accounts{users: users, tokens: tokens, logger: logger.With("component", "accounts")}
}

// Tokens returns the token service used to sign sessions.
func (a *Accounts) Tokens() *Tokens { return a.tokens }

// Register creates a user with a hashed password and returns a session token.
func (a *Accounts) Register(name, email, password string) (string, *models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: please enter all fields", shared.ErrValidation)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user, err := a.users.CreateUser(name, email, hash)
	if errors.Is(err, shared.ErrDuplicate) {
		return "", nil, fmt.Errorf("%w: user already exists", shared.ErrDuplicate)
	}
	if err != nil {
		return "", nil, err
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}

	a.logger.Info("user registered", "email", email)
	return token, user.Sanitized(), nil
}

// Login verifies credentials and returns a session token.
//
// Unknown emails and wrong passwords both yield [shared.ErrInvalidCredentials].
func (a *Accounts) Login(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: please enter all fields", shared.ErrValidation)
	}

	user, err := a.users.UserByEmail(email)
	if errors.Is(err, shared.ErrNotFound) {
		a.logger.Debug("login for unknown email", "email", email)
		return "", shared.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := CheckPassword(user.Password, password); err != nil {
		a.logger.Debug("login with wrong password", "email", email)
		return "", err
	}

	return a.tokens.Issue(user)
}

// Profile returns the user without the password hash.
func (a *Accounts) Profile(id string) (*models.User, error) {
	user, err := a.users.User(id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// Authenticate verifies token and confirms the user still exists.
func (a *Accounts) Authenticate(token string) (Principal, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return Principal{}, err
	}

	user, err := a.users.User(claims.Subject)
	if errors.Is(err, shared.ErrNotFound) {
		return Principal{}, fmt.Errorf("%w: user no longer exists", shared.ErrUnauthorized)
	}
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}
