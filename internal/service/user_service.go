package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/store"
	"github.com/sitrack/sitrack-gin/internal/utils"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when an operation targets an unknown user.
var ErrUserNotFound = errors.New("user not found")

// CreateUserRequest carries the Admin user form.
type CreateUserRequest struct {
	ID       string     `json:"id"`
	Name     string     `json:"name" binding:"required"`
	Role     model.Role `json:"role" binding:"required"`
	Password string     `json:"password" binding:"required"`
}

// UpdateUserRequest carries a partial user update. Empty password
// keeps the stored hash.
type UpdateUserRequest struct {
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

// UserService owns the user directory.
type UserService struct {
	users      repository.UserRepository
	store      *store.Store
	bcryptCost int
}

func NewUserService(users repository.UserRepository, st *store.Store, bcryptCost int) *UserService {
	return &UserService{users: users, store: st, bcryptCost: bcryptCost}
}

// List returns all users without password hashes.
func (s *UserService) List() ([]model.User, error) {
	users, err := s.users.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// Create adds a user. A request reusing an existing id replaces that
// user rather than duplicating it.
func (s *UserService) Create(req CreateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", req.Role)
	}
	if req.ID != "" {
		if err := utils.ValidateID(req.ID); err != nil {
			return nil, fmt.Errorf("invalid user id: %w", err)
		}
	}
	name := utils.SanitizeText(req.Name)
	if err := utils.ValidateField(name); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:       req.ID,
		Name:     name,
		Role:     req.Role,
		Password: hash,
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	if err := s.users.Save(&user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.store.Dispatch(store.AddUser{User: user.Sanitized()})

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Update modifies name, role or password of an existing user.
func (s *UserService) Update(id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if req.Name != "" {
		user.Name = utils.SanitizeText(req.Name)
	}
	if req.Role != "" {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("invalid role %q", req.Role)
		}
		user.Role = req.Role
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hash
	}

	if err := s.users.Save(user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.store.Dispatch(store.UpdateUser{User: user.Sanitized()})

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Delete removes a user. Deleting an unknown id is a no-op.
func (s *UserService) Delete(id string) error {
	if err := s.users.Delete(id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.store.Dispatch(store.DeleteUser{ID: id})
	return nil
}
