package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techstore/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &models.ValidationError{Field: "quantity", Msg: "must be at least 1"}, http.StatusBadRequest},
		{"not found", &models.NotFoundError{Entity: "product", ID: "9"}, http.StatusNotFound},
		{"authorization", &models.AuthorizationError{Msg: "admin privilege required"}, http.StatusForbidden},
		{"conflict", &models.ConflictError{Msg: "booking is already cancelled"}, http.StatusConflict},
		{"transient store", &models.TransientStoreError{Op: "get", Err: fmt.Errorf("down")}, http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			writeError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, fmt.Errorf("pq: secret table missing"))
	assert.NotContains(t, w.Body.String(), "secret table")
	assert.Contains(t, w.Body.String(), "internal server error")
}

const testSecret = "test-secret"

func signedToken(t *testing.T, userID int64, role string) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", AuthMiddleware(testSecret), func(c *gin.Context) {
		ident, ok := identityFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": ident.UserID, "role": ident.Role})
	})
	return router
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	router := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 7, models.RoleAdmin))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestAuthMiddlewareUnknownRoleDowngraded(t *testing.T) {
	router := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 7, "superuser"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	router := authTestRouter()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
