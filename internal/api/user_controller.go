package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/service"
)

// UserController serves the Admin user directory.
type UserController struct {
	users *service.UserService
}

func NewUserController(users *service.UserService) *UserController {
	return &UserController{users: users}
}

// List returns all users.
func (u *UserController) List(c *gin.Context) {
	users, err := u.users.List()
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to list users", err.Error())
		return
	}
	Success(c, users)
}

// Create adds or replaces a user.
func (u *UserController) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := u.users.Create(req)
	if err != nil {
		Error(c, http.StatusBadRequest, "failed to create user", err.Error())
		return
	}
	Success(c, user)
}

// Update edits a user.
func (u *UserController) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := u.users.Update(c.Param("id"), req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			Error(c, http.StatusNotFound, "user not found", "")
			return
		}
		Error(c, http.StatusBadRequest, "failed to update user", err.Error())
		return
	}
	Success(c, user)
}

// Delete removes a user.
func (u *UserController) Delete(c *gin.Context) {
	if err := u.users.Delete(c.Param("id")); err != nil {
		Error(c, http.StatusInternalServerError, "failed to delete user", err.Error())
		return
	}
	Success(c, nil)
}
