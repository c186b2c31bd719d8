package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

type mockIncomeService struct {
	postIncomeFn     func(userID string, input services.IncomeInput) (*models.Income, *models.Account, error)
	getUserIncomesFn func(userID string, page pagination.PageRequest, filter services.IncomeFilter) (*pagination.PageResponse[models.Income], error)
	editIncomeFn     func(userID, incomeID string, input services.IncomeInput) (*models.Income, []models.Account, error)
	deleteIncomeFn   func(userID, incomeID string) (*models.Account, error)
}

func (m *mockIncomeService) PostIncome(userID string, input services.IncomeInput) (*models.Income, *models.Account, error) {
	if m.postIncomeFn != nil {
		return m.postIncomeFn(userID, input)
	}
	return &models.Income{}, &models.Account{}, nil
}

func (m *mockIncomeService) GetIncomeByID(_, incomeID string) (*models.Income, error) {
	return &models.Income{Base: models.Base{ID: incomeID}}, nil
}

func (m *mockIncomeService) GetUserIncomes(userID string, page pagination.PageRequest, filter services.IncomeFilter) (*pagination.PageResponse[models.Income], error) {
	if m.getUserIncomesFn != nil {
		return m.getUserIncomesFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Income{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockIncomeService) EditIncome(userID, incomeID string, input services.IncomeInput) (*models.Income, []models.Account, error) {
	if m.editIncomeFn != nil {
		return m.editIncomeFn(userID, incomeID, input)
	}
	return &models.Income{}, nil, nil
}

func (m *mockIncomeService) DeleteIncome(userID, incomeID string) (*models.Account, error) {
	if m.deleteIncomeFn != nil {
		return m.deleteIncomeFn(userID, incomeID)
	}
	return &models.Account{}, nil
}

func (m *mockIncomeService) PostDueIncomes(context.Context, time.Time) (int, error) {
	return 0, nil
}

var _ services.IncomeServicer = (*mockIncomeService)(nil)

func setupIncomeRouter(handler *IncomeHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/incomes", handler.CreateIncome)
	auth.GET("/incomes", handler.GetIncomes)
	auth.GET("/incomes/:id", handler.GetIncome)
	auth.PUT("/incomes/:id", handler.UpdateIncome)
	auth.DELETE("/incomes/:id", handler.DeleteIncome)
	return r
}

func TestIncomeHandler_CreateIncome(t *testing.T) {
	t.Run("parses date and value", func(t *testing.T) {
		var got services.IncomeInput
		svc := &mockIncomeService{
			postIncomeFn: func(_ string, input services.IncomeInput) (*models.Income, *models.Account, error) {
				got = input
				return &models.Income{Value: input.Value}, &models.Account{}, nil
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc))

		rec := doRequest(r, "POST", "/incomes",
			`{"account_id":"`+testAccountID+`","description":"Salary","value":"3500.00","date":"2025-07-05","is_recurring":true}`)

		assertStatus(t, rec, http.StatusCreated)
		if !got.Date.Equal(time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2025-07-05, got %s", got.Date)
		}
		if got.Value.String() != "3500" || !got.IsRecurring {
			t.Errorf("unexpected input %+v", got)
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}))

		rec := doRequest(r, "POST", "/incomes",
			`{"account_id":"`+testAccountID+`","description":"Salary","value":"10","date":"05/07/2025"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("maps inactive account", func(t *testing.T) {
		svc := &mockIncomeService{
			postIncomeFn: func(string, services.IncomeInput) (*models.Income, *models.Account, error) {
				return nil, nil, apperrors.ErrAccountInactive
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc))

		rec := doRequest(r, "POST", "/incomes",
			`{"account_id":"`+testAccountID+`","description":"Salary","value":"10","date":"2025-07-05"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_INACTIVE")
	})
}

func TestIncomeHandler_GetIncomes(t *testing.T) {
	t.Run("builds filter from query", func(t *testing.T) {
		var got services.IncomeFilter
		svc := &mockIncomeService{
			getUserIncomesFn: func(_ string, _ pagination.PageRequest, filter services.IncomeFilter) (*pagination.PageResponse[models.Income], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Income{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc))

		rec := doRequest(r, "GET", "/incomes?account_id="+testAccountID+"&from_date=2025-07-01&posted=false", "")

		assertStatus(t, rec, http.StatusOK)
		if got.AccountID == nil || *got.AccountID != testAccountID {
			t.Errorf("expected account filter, got %v", got.AccountID)
		}
		if got.FromDate == nil || got.ToDate != nil {
			t.Errorf("expected only from_date, got %v / %v", got.FromDate, got.ToDate)
		}
		if got.Posted == nil || *got.Posted {
			t.Errorf("expected posted=false, got %v", got.Posted)
		}
	})

	t.Run("rejects bad posted flag", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}))

		rec := doRequest(r, "GET", "/incomes?posted=maybe", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestIncomeHandler_DeleteIncome(t *testing.T) {
	svc := &mockIncomeService{
		deleteIncomeFn: func(string, string) (*models.Account, error) {
			return nil, apperrors.ErrIncomeNotFound
		},
	}
	r := setupIncomeRouter(NewIncomeHandler(svc))

	rec := doRequest(r, "DELETE", "/incomes/"+testOtherID, "")

	assertStatus(t, rec, http.StatusNotFound)
	assertErrorCode(t, parseJSON(t, rec), "INCOME_NOT_FOUND")
}
