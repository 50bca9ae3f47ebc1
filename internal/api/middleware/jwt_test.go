package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init("error", "console")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var testJWTConfig = JWTConfig{
	SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	Issuer:     "reqflow",
	ExpiresIn:  time.Hour,
}

func protectedRouter(cfg JWTConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	group := r.Group("/", JWTAuth(cfg.SigningKey))
	group.Use(extra...)
	group.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"role":    c.GetString("user_role"),
		})
	})
	return r
}

func TestJWTAuthRoundtrip(t *testing.T) {
	token, expiresAt, err := GenerateToken(testJWTConfig, "emp-1", "Dana", "employee")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	r := protectedRouter(testJWTConfig)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"emp-1"`)
	assert.Contains(t, w.Body.String(), `"role":"employee"`)
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	r := protectedRouter(testJWTConfig)

	otherKey := testJWTConfig
	otherKey.SigningKey = []byte("ffffffffffffffffffffffffffffffff")
	forged, _, err := GenerateToken(otherKey, "emp-1", "Dana", "employee")
	require.NoError(t, err)

	expiredCfg := testJWTConfig
	expiredCfg.ExpiresIn = -time.Hour
	expired, _, err := GenerateToken(expiredCfg, "emp-1", "Dana", "employee")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong key", "Bearer " + forged},
		{"expired", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(testJWTConfig, RequireRole("finance"))

	financeToken, _, err := GenerateToken(testJWTConfig, "fin-1", "Ada", "finance")
	require.NoError(t, err)
	adminToken, _, err := GenerateToken(testJWTConfig, "admin-1", "Root", "admin")
	require.NoError(t, err)
	employeeToken, _, err := GenerateToken(testJWTConfig, "emp-1", "Dana", "employee")
	require.NoError(t, err)

	do := func(token string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(financeToken))
	// Admin passes every role gate.
	assert.Equal(t, http.StatusOK, do(adminToken))
	assert.Equal(t, http.StatusForbidden, do(employeeToken))
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrInvalidStateTransitionf("r1", "approved"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATE_TRANSITION")
	assert.Contains(t, w.Body.String(), `"params"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
