package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

const testOwner = "owner-1"

func injectOwnerID(ownerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func TestParseDate(t *testing.T) {
	t.Run("accepts calendar dates", func(t *testing.T) {
		got, err := parseDate("date", "2024-03-05")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", got)
		}
	})

	t.Run("accepts RFC3339", func(t *testing.T) {
		got, err := parseDate("date", "2024-03-05T10:30:00Z")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Hour() != 10 {
			t.Errorf("expected hour 10, got %d", got.Hour())
		}
	})

	t.Run("empty is zero", func(t *testing.T) {
		got, err := parseDate("date", "  ")
		if err != nil || !got.IsZero() {
			t.Errorf("expected zero time and nil error, got %v, %v", got, err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := parseDate("from", "05/03/2024")
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
	})
}

func TestGetOwnerID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, err := getOwnerID(c); err != apperrors.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	c.Set(OwnerIDKey, "")
	if _, err := getOwnerID(c); err != apperrors.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized for empty owner, got %v", err)
	}

	c.Set(OwnerIDKey, testOwner)
	id, err := getOwnerID(c)
	if err != nil || id != testOwner {
		t.Errorf("expected %q, got %q (%v)", testOwner, id, err)
	}
}
