package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/testutil"
)

func TestHealthHandler_Health(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := gin.New()
	r.GET("/health", NewHealthHandler(db).Health)

	rec := doRequest(r, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	rec = doRequest(r, "GET", "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after close, got %d", rec.Code)
	}
}
