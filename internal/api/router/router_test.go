package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/api/handler"
	"school-timetable/backend/internal/service"
	"school-timetable/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Minute, Issuer: "school-auth"},
		Timetable: config.TimetableConfig{
			RateLimit:       10,
			RateLimitWindow: time.Minute,
		},
	}
	mgr := jwt.NewManager(&cfg.Auth)
	// 只验证路由与鉴权，不会触达 Service
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, mgr, nil, zap.NewNop()), mgr
}

func TestSetup_Health(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("响应应带 X-Request-ID")
	}
}

func TestSetup_RequiresAuth(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/timetable/latest", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际: %d", w.Code)
	}
}

func TestSetup_RoleRestrictions(t *testing.T) {
	r, mgr := setupTestRouter(t)

	tests := []struct {
		method string
		path   string
		role   string
	}{
		{"GET", "/api/v1/timetable/snapshot", "teacher"},
		{"POST", "/api/v1/timetable/generate", "teacher"},
		{"POST", "/api/v1/timetable/sched-1/publish", "student"},
		{"GET", "/api/v1/timetable/history", "parent"},
		{"GET", "/api/v1/timetable/sched-1/export", "student"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			token, _ := mgr.GenerateAccessToken("user-1", tt.role)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("角色 %s 期望 403，实际: %d", tt.role, w.Code)
			}
		})
	}
}
