package service

import (
	"errors"
	"fmt"

	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/store"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for both unknown users and wrong
// passwords so the response does not leak which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginRequest carries dashboard login credentials.
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is the issued session.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// AuthService authenticates dashboard users against local accounts.
type AuthService struct {
	users  repository.UserRepository
	issuer *auth.TokenIssuer
	store  *store.Store
}

func NewAuthService(users repository.UserRepository, issuer *auth.TokenIssuer, st *store.Store) *AuthService {
	return &AuthService{users: users, issuer: issuer, store: st}
}

// Login verifies the password and issues a session token. The session
// store is updated so the dashboard state reflects the signed-in user.
func (s *AuthService) Login(req LoginRequest) (*LoginResult, error) {
	user, err := s.users.FindByName(req.Name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.store.Dispatch(store.Login{User: *user})

	return &LoginResult{Token: token, User: user.Sanitized()}, nil
}

// Logout clears the signed-in user from the session store. Tokens are
// stateless, so revocation is the client discarding its copy.
func (s *AuthService) Logout() {
	s.store.Dispatch(store.Logout{})
}
