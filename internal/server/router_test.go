package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/changefeed"
	"budgetwise/internal/middleware"
	"budgetwise/internal/testutil"
	"budgetwise/internal/validator"
)

const secret = "router-secret"

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return NewRouter(db, changefeed.NewHub(0), Options{JWTSecret: secret})
}

func request(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthIsPublic(t *testing.T) {
	r := newTestRouter(t)
	if rec := request(r, http.MethodGet, "/api/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	if rec := request(r, http.MethodGet, "/api/v1/transactions", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouterScopesRowsByTokenSubject(t *testing.T) {
	r := newTestRouter(t)
	alice, _ := middleware.GenerateAccessToken("alice", secret, time.Hour)
	bob, _ := middleware.GenerateAccessToken("bob", secret, time.Hour)

	rec := request(r, http.MethodPost, "/api/v1/transactions", alice, `{"kind":"expense","amount":"20","category":"Food"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = request(r, http.MethodGet, "/api/v1/transactions", bob, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"transactions":[]`) {
		t.Errorf("expected bob to see nothing, got %s", rec.Body.String())
	}

	rec = request(r, http.MethodGet, "/api/v1/transactions", alice, "")
	if !strings.Contains(rec.Body.String(), `"category":"Food"`) {
		t.Errorf("expected alice to see her row, got %s", rec.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	rec := request(r, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %d %s", rec.Code, rec.Body.String())
	}
}
