package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/pin-lock/internal/utils"
)

func newRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/read", m.RequireScope(utils.ScopeRead), func(c *gin.Context) {
		op, _ := GetOperator(c)
		c.String(http.StatusOK, op)
	})
	r.GET("/admin", m.RequireScope(utils.ScopeAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r *gin.Engine, path, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireScope(t *testing.T) {
	jwt := utils.NewJWTManager("secret", time.Hour)
	r := newRouter(NewAuthMiddleware(jwt))

	readToken, err := jwt.GenerateToken("alice", utils.ScopeRead)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		status int
	}{
		{"缺少令牌", "/read", "", "", http.StatusUnauthorized},
		{"无效令牌", "/read", "Authorization", "Bearer garbage", http.StatusUnauthorized},
		{"Bearer令牌", "/read", "Authorization", "Bearer " + readToken, http.StatusOK},
		{"X-Access-Token", "/read", "X-Access-Token", readToken, http.StatusOK},
		{"Query令牌", "/read?token=" + readToken, "", "", http.StatusOK},
		{"权限不足", "/admin", "Authorization", "Bearer " + readToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.path, tt.header, tt.value)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK && tt.path != "/admin" {
				assert.Equal(t, "alice", w.Body.String())
			}
		})
	}
}

func TestRequireScope_Disabled(t *testing.T) {
	m := NewAuthMiddleware(nil)
	assert.False(t, m.Enabled())

	w := do(newRouter(m), "/admin", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
