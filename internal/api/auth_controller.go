package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/service"
)

// AuthController serves login and logout.
type AuthController struct {
	auth *service.AuthService
}

func NewAuthController(auth *service.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Login checks credentials and returns a session token with the
// sanitized user.
func (a *AuthController) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := a.auth.Login(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Error(c, http.StatusUnauthorized, "invalid credentials", "")
			return
		}
		Error(c, http.StatusInternalServerError, "login failed", err.Error())
		return
	}

	Success(c, result)
}

// Logout ends the dashboard session.
func (a *AuthController) Logout(c *gin.Context) {
	a.auth.Logout()
	Success(c, nil)
}
