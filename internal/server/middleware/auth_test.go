package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pomelo/internal/pkg/ctxutil"
	"pomelo/internal/pkg/jwt"
)

func newAuthRouter(t *testing.T, optional bool) (*gin.Engine, *jwt.JWT) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtUtil := jwt.NewJWT("test-secret", time.Hour)

	r := gin.New()
	mw := Auth(jwtUtil)
	if optional {
		mw = OptionalAuth(jwtUtil)
	}
	r.GET("/probe", mw, func(c *gin.Context) {
		identity, _ := ctxutil.GetUserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"identity": identity})
	})
	return r, jwtUtil
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r, _ := newAuthRouter(t, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	r, jwtUtil := newAuthRouter(t, false)

	token, err := jwtUtil.GenerateToken("user-1", "alice", "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"identity":"user-1"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	r, _ := newAuthRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous request, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"identity":""}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	r, _ := newAuthRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", w.Code)
	}
}
