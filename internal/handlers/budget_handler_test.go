package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/services"
	"budgetwise/internal/usage"
)

// --- mock budget service ---

type mockBudgetService struct {
	saveBudgetFn      func(ownerID string, input models.BudgetInput) (*models.Budget, error)
	getOwnerBudgetsFn func(ownerID string) ([]models.Budget, error)
	getBudgetByIDFn   func(ownerID, id string) (*models.Budget, error)
	deleteBudgetFn    func(ownerID, id string) error
	getBudgetUsageFn  func(ownerID, id string, now time.Time) (*usage.Usage, error)
}

func (m *mockBudgetService) SaveBudget(ownerID string, input models.BudgetInput) (*models.Budget, error) {
	if m.saveBudgetFn != nil {
		return m.saveBudgetFn(ownerID, input)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetOwnerBudgets(ownerID string) ([]models.Budget, error) {
	if m.getOwnerBudgetsFn != nil {
		return m.getOwnerBudgetsFn(ownerID)
	}
	return []models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetByID(ownerID, id string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(ownerID, id)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(ownerID, id string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(ownerID, id)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetUsage(ownerID, id string, now time.Time) (*usage.Usage, error) {
	if m.getBudgetUsageFn != nil {
		return m.getBudgetUsageFn(ownerID, id, now)
	}
	return &usage.Usage{}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectOwnerID(testOwner))
	auth.GET("/budgets", handler.GetBudgets)
	auth.PUT("/budgets", handler.SaveBudget)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	auth.GET("/budgets/:id/usage", handler.GetBudgetUsage)
	return r
}

func TestBudgetHandler_SaveBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var captured models.BudgetInput
		svc := &mockBudgetService{
			saveBudgetFn: func(ownerID string, input models.BudgetInput) (*models.Budget, error) {
				captured = input
				return &models.Budget{
					Base:     models.Base{ID: "b-1"},
					OwnerID:  ownerID,
					Category: input.Category,
					Limit:    input.Limit,
					Period:   input.Period,
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "PUT", "/budgets", `{"category":"Food","limit":5000,"period":"monthly"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["id"] != "b-1" || budget["limit"] != "5000" {
			t.Errorf("unexpected budget %v", budget)
		}
		if captured.ID != "" {
			t.Errorf("expected create (no id), got %q", captured.ID)
		}
	})

	t.Run("allows a zero limit", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, "PUT", "/budgets", `{"category":"Fun","limit":0,"period":"yearly"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on negative limit", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, "PUT", "/budgets", `{"category":"Food","limit":-1,"period":"monthly"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on unknown period", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, "PUT", "/budgets", `{"category":"Food","limit":10,"period":"weekly"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when editing a missing budget", func(t *testing.T) {
		svc := &mockBudgetService{
			saveBudgetFn: func(_ string, _ models.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "PUT", "/budgets", `{"id":"gone","category":"Food","limit":10,"period":"monthly"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	svc := &mockBudgetService{
		getOwnerBudgetsFn: func(_ string) ([]models.Budget, error) {
			return []models.Budget{{Base: models.Base{ID: "b-1"}, Category: "Food"}}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc))

	rec := doRequest(r, "GET", "/budgets", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if items := parseJSON(t, rec)["budgets"].([]interface{}); len(items) != 1 {
		t.Errorf("expected 1 budget, got %d", len(items))
	}
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	svc := &mockBudgetService{
		deleteBudgetFn: func(_, id string) error {
			if id != "b-1" {
				return apperrors.ErrBudgetNotFound
			}
			return nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc))

	if rec := doRequest(r, "DELETE", "/budgets/b-1", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := doRequest(r, "DELETE", "/budgets/b-2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestBudgetHandler_GetBudgetUsage(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := &mockBudgetService{
		getBudgetUsageFn: func(_, id string, at time.Time) (*usage.Usage, error) {
			if !at.Equal(now) {
				t.Errorf("expected handler clock, got %v", at)
			}
			u := usage.Compute(models.Budget{
				Base:     models.Base{ID: id},
				Category: "Food",
				Limit:    decimal.NewFromInt(5000),
				Period:   models.BudgetPeriodMonthly,
			}, decimal.NewFromInt(4500))
			return &u, nil
		},
	}
	handler := NewBudgetHandler(svc)
	handler.now = func() time.Time { return now }
	r := setupBudgetRouter(handler)

	rec := doRequest(r, "GET", "/budgets/b-1/usage", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	u := parseJSON(t, rec)["usage"].(map[string]interface{})
	if u["percentage"] != float64(90) {
		t.Errorf("expected 90%%, got %v", u["percentage"])
	}
	if u["remaining"] != "500" {
		t.Errorf("expected remaining 500, got %v", u["remaining"])
	}
	if u["status"] != string(usage.StatusUnder) {
		t.Errorf("expected under, got %v", u["status"])
	}
}
