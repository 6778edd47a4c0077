package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &model.User{ID: "u1", Name: "Roza Erlinda", Role: model.RoleStaff}

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Roza Erlinda", claims.Name)
	assert.Equal(t, model.RoleStaff, claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Issue(&model.User{ID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.ttl = -time.Minute

	token, err := issuer.Issue(&model.User{ID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("admin123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
	assert.False(t, CheckPassword("", "admin123"))
}

func newAuthedRequest(t *testing.T, issuer *TokenIssuer, user *model.User) *http.Request {
	t.Helper()
	token, err := issuer.Issue(user)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	router := gin.New()
	router.GET("/protected", Middleware(issuer), func(c *gin.Context) {
		id, name, role, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id, "name": name, "role": role})
	})

	t.Run("accepts bearer header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newAuthedRequest(t, issuer, &model.User{ID: "u1", Name: "Admin", Role: model.RoleAdmin})
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("accepts token query param", func(t *testing.T) {
		token, err := issuer.Issue(&model.User{ID: "u1", Role: model.RoleTU})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	router := gin.New()
	router.GET("/protected",
		Middleware(issuer),
		RequireRole(model.RoleAdmin, model.RoleTU),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	t.Run("allows listed role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newAuthedRequest(t, issuer, &model.User{ID: "u1", Role: model.RoleTU})
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects other role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newAuthedRequest(t, issuer, &model.User{ID: "u2", Role: model.RoleStaff})
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
