package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/societypro/admin-service/internal/models"
)

func signedToken(t *testing.T, userID, email string, role models.Role) string {
	t.Helper()
	token, _, err := generateJWTToken(userID, email, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func authedGet(t *testing.T, router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func gatedRouter(h *Handler, gate gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gate)
	r.GET("/protected", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func TestRequireAdmin(t *testing.T) {
	store := newStubStore()
	adminID := seedAccount(t, store, "admin@green-valley.test", "pw", models.RoleAdmin)
	residentID := seedAccount(t, store, "resident@green-valley.test", "pw", models.RoleResident)
	h := NewHandler(store, nil, nil)
	router := gatedRouter(h, h.RequireAdmin())

	t.Run("no token", func(t *testing.T) {
		w := authedGet(t, router, "/protected", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := authedGet(t, router, "/protected", "not-a-jwt")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong signing key", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "other-secret")
		forged := signedToken(t, adminID, "admin@green-valley.test", models.RoleAdmin)
		t.Setenv("JWT_SECRET", "test-secret")
		w := authedGet(t, router, "/protected", forged)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("non-admin profile", func(t *testing.T) {
		token := signedToken(t, residentID, "resident@green-valley.test", models.RoleResident)
		w := authedGet(t, router, "/protected", token)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("no profile row", func(t *testing.T) {
		token := signedToken(t, "ghost-user", "ghost@green-valley.test", models.RoleAdmin)
		w := authedGet(t, router, "/protected", token)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("admin passes", func(t *testing.T) {
		token := signedToken(t, adminID, "admin@green-valley.test", models.RoleAdmin)
		w := authedGet(t, router, "/protected", token)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestRequireAdminChecksRoleEveryRequest(t *testing.T) {
	store := newStubStore()
	adminID := seedAccount(t, store, "admin@green-valley.test", "pw", models.RoleAdmin)
	h := NewHandler(store, nil, nil)
	router := gatedRouter(h, h.RequireAdmin())

	token := signedToken(t, adminID, "admin@green-valley.test", models.RoleAdmin)
	if w := authedGet(t, router, "/protected", token); w.Code != http.StatusOK {
		t.Fatalf("expected 200 before demotion, got %d", w.Code)
	}

	// Demote the profile; the old token must stop working immediately.
	profile := store.profiles[adminID]
	profile.Role = models.RoleResident
	if w := authedGet(t, router, "/protected", token); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 after demotion, got %d", w.Code)
	}
}

func TestRequireExecutive(t *testing.T) {
	h := NewHandler(newStubStore(), nil, nil)
	router := gatedRouter(h, h.RequireExecutive())

	t.Run("executive passes", func(t *testing.T) {
		token := signedToken(t, "executive", "exec@societypro.test", models.RoleExecutive)
		w := authedGet(t, router, "/protected", token)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("admin token rejected", func(t *testing.T) {
		token := signedToken(t, "user-1", "admin@green-valley.test", models.RoleAdmin)
		w := authedGet(t, router, "/protected", token)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("no token", func(t *testing.T) {
		w := authedGet(t, router, "/protected", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("under the cap", func(t *testing.T) {
		store := newStubStore()
		h := NewHandler(store, nil, nil)
		router := gatedRouter(h, h.RateLimit(100, 15*time.Minute))
		w := authedGet(t, router, "/protected", "")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if store.callIndex("IncrementRequestRate:") == -1 {
			t.Error("expected the request to be counted")
		}
	})

	t.Run("over the cap", func(t *testing.T) {
		store := newStubStore()
		store.rateLimited = true
		h := NewHandler(store, nil, nil)
		router := gatedRouter(h, h.RateLimit(100, 15*time.Minute))
		w := authedGet(t, router, "/protected", "")
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", w.Code)
		}
		if store.callIndex("IncrementRequestRate:") != -1 {
			t.Error("rejected request must not be counted")
		}
	})

	t.Run("sweeps stale buckets at most once per hour", func(t *testing.T) {
		store := newStubStore()
		h := NewHandler(store, nil, nil)
		router := gatedRouter(h, h.RateLimit(100, 15*time.Minute))
		authedGet(t, router, "/protected", "")
		authedGet(t, router, "/protected", "")

		sweeps := 0
		for _, call := range store.calls {
			if call == "CleanupOldRateLimits" {
				sweeps++
			}
		}
		if sweeps != 1 {
			t.Errorf("expected exactly one cleanup sweep across back-to-back requests, got %d", sweeps)
		}
	})

	t.Run("fails open on store error", func(t *testing.T) {
		store := newStubStore()
		store.rateErr = errors.New("connection refused")
		h := NewHandler(store, nil, nil)
		router := gatedRouter(h, h.RateLimit(100, 15*time.Minute))
		w := authedGet(t, router, "/protected", "")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200 when the limiter store is down, got %d", w.Code)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	const origin = "https://app.societypro.test"
	r := gin.New()
	r.Use(CORSMiddleware(origin))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("expected allow-origin %q, got %q", origin, got)
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("expected allow-credentials true, got %q", got)
		}
	})

	t.Run("other origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.test")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", w.Code)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := getPath(t, r, "/")
	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"X-DNS-Prefetch-Control": "off",
	}
	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("header %s: expected %q, got %q", header, want, got)
		}
	}
}
