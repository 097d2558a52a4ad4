package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fgreter/sopra-fs19-server/internal/apperr"
	"github.com/fgreter/sopra-fs19-server/internal/middleware"
	"github.com/fgreter/sopra-fs19-server/internal/models"
	"github.com/fgreter/sopra-fs19-server/internal/service"
)

// ---- mock implementations ----

type mockAccounts struct {
	listFn     func(token string) ([]models.Account, error)
	registerFn func(params service.RegisterParams) (*models.Account, error)
	getFn      func(id int64, token string) (*models.Account, error)
	updateFn   func(id int64, patch service.AccountPatch) (*models.Account, error)
	deleteFn   func(id int64, token string) error
}

func (m *mockAccounts) ListAccounts(ctx context.Context, token string) ([]models.Account, error) {
	if m.listFn != nil {
		return m.listFn(token)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAccounts) Register(ctx context.Context, params service.RegisterParams) (*models.Account, error) {
	if m.registerFn != nil {
		return m.registerFn(params)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAccounts) GetAccount(ctx context.Context, id int64, token string) (*models.Account, error) {
	if m.getFn != nil {
		return m.getFn(id, token)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAccounts) UpdateAccount(ctx context.Context, id int64, patch service.AccountPatch) (*models.Account, error) {
	if m.updateFn != nil {
		return m.updateFn(id, patch)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAccounts) DeleteAccount(ctx context.Context, id int64, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(id, token)
	}
	return fmt.Errorf("not configured")
}

// ---- helpers ----

func newAccountTestRouter(accounts Accounts) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAccountHandler(accounts)
	v1 := r.Group("/v1")
	v1.POST("/accounts", h.RegisterAccount)
	v1.GET("/accounts", middleware.TokenRequired(), h.ListAccounts)
	v1.GET("/accounts/:id", middleware.TokenRequired(), h.GetAccount)
	v1.PATCH("/accounts/:id", h.UpdateAccount)
	v1.DELETE("/accounts/:id", middleware.TokenRequired(), h.DeleteAccount)
	return r
}

func doRequest(router *gin.Engine, method, url, bearer string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var testAccount = &models.Account{
	ID: 1, Username: "alice", DisplayName: "Alice",
	Password: "secr3t", Token: "tok-alice",
	Status:           models.StatusOnline,
	RegistrationDate: models.Today(),
	LastSeenDate:     time.Now().UTC(),
}

func validRegisterBody() map[string]interface{} {
	return map[string]interface{}{
		"username": "alice", "displayName": "Alice", "password": "secr3t",
	}
}

// ---- tests ----

func TestRegisterAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		registerFn     func(service.RegisterParams) (*models.Account, error)
		expectedStatus int
	}{
		{
			name:           "created - valid registration",
			body:           validRegisterBody(),
			registerFn:     func(params service.RegisterParams) (*models.Account, error) { return testAccount, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{"username": "alice"},
			registerFn:     nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - password shorter than four characters",
			body:           map[string]interface{}{"username": "alice", "displayName": "Alice", "password": "abc"},
			registerFn:     nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "conflict - username already exists",
			body: validRegisterBody(),
			registerFn: func(params service.RegisterParams) (*models.Account, error) {
				return nil, apperr.Conflict("Username already exists")
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccounts{registerFn: tt.registerFn})
			w := doRequest(router, http.MethodPost, "/v1/accounts", "", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRegisterAccount_ResponseShape(t *testing.T) {
	router := newAccountTestRouter(&mockAccounts{
		registerFn: func(params service.RegisterParams) (*models.Account, error) { return testAccount, nil },
	})
	w := doRequest(router, http.MethodPost, "/v1/accounts", "", validRegisterBody())

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != "/v1/accounts/1" {
		t.Errorf("expected Location /v1/accounts/1, got %q", got)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["token"] != "tok-alice" {
		t.Errorf("expected the fresh token in the response, got %v", body["token"])
	}
	if _, leaked := body["password"]; leaked {
		t.Error("password must never be serialised")
	}
}

func TestListAccounts(t *testing.T) {
	tests := []struct {
		name           string
		bearer         string
		listFn         func(token string) ([]models.Account, error)
		expectedStatus int
	}{
		{
			name:   "success - valid token",
			bearer: "tok-alice",
			listFn: func(token string) ([]models.Account, error) {
				return []models.Account{*testAccount}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - missing header",
			bearer:         "",
			listFn:         nil,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "unauthorized - token unknown to the store",
			bearer: "bogus",
			listFn: func(token string) ([]models.Account, error) {
				return nil, apperr.Unauthorized("Invalid token")
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccounts{listFn: tt.listFn})
			w := doRequest(router, http.MethodGet, "/v1/accounts", tt.bearer, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListAccounts_ViewsHideCredentials(t *testing.T) {
	router := newAccountTestRouter(&mockAccounts{
		listFn: func(token string) ([]models.Account, error) { return []models.Account{*testAccount}, nil },
	})
	w := doRequest(router, http.MethodGet, "/v1/accounts", "tok-alice", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 account, got %d", len(body))
	}
	if _, leaked := body[0]["token"]; leaked {
		t.Error("list must not expose session tokens")
	}
	if _, leaked := body[0]["password"]; leaked {
		t.Error("list must not expose passwords")
	}
}

func TestGetAccount(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		bearer         string
		getFn          func(id int64, token string) (*models.Account, error)
		expectedStatus int
	}{
		{
			name:   "success - any valid token may read any account",
			url:    "/v1/accounts/1",
			bearer: "tok-bob",
			getFn: func(id int64, token string) (*models.Account, error) {
				return testAccount, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - missing header",
			url:            "/v1/accounts/1",
			bearer:         "",
			getFn:          nil,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "not found - unknown id",
			url:    "/v1/accounts/999",
			bearer: "tok-alice",
			getFn: func(id int64, token string) (*models.Account, error) {
				return nil, apperr.NotFound("Account with id %d not found", id)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "not found - non-numeric id",
			url:            "/v1/accounts/abc",
			bearer:         "tok-alice",
			getFn:          nil,
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccounts{getFn: tt.getFn})
			w := doRequest(router, http.MethodGet, tt.url, tt.bearer, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		updateFn       func(id int64, patch service.AccountPatch) (*models.Account, error)
		expectedStatus int
	}{
		{
			name: "success - birthday patch",
			body: map[string]interface{}{"token": "tok-alice", "birthday": "1990-01-01"},
			updateFn: func(id int64, patch service.AccountPatch) (*models.Account, error) {
				if patch.Birthday == nil {
					t.Error("expected birthday to be set on the patch")
				}
				if patch.Username != nil {
					t.Error("expected username to stay unset on the patch")
				}
				return testAccount, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing token",
			body:           map[string]interface{}{"birthday": "1990-01-01"},
			updateFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unauthorized - token does not match the account",
			body: map[string]interface{}{"token": "bogus"},
			updateFn: func(id int64, patch service.AccountPatch) (*models.Account, error) {
				return nil, apperr.Unauthorized("Invalid token for account with id %d", id)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "not found - unknown id",
			body: map[string]interface{}{"token": "tok-alice"},
			updateFn: func(id int64, patch service.AccountPatch) (*models.Account, error) {
				return nil, apperr.NotFound("Account with id %d not found", id)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "conflict - new username already taken",
			body: map[string]interface{}{"token": "tok-alice", "username": "bob"},
			updateFn: func(id int64, patch service.AccountPatch) (*models.Account, error) {
				return nil, apperr.Conflict("Username already exists")
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccounts{updateFn: tt.updateFn})
			w := doRequest(router, http.MethodPatch, "/v1/accounts/1", "", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	tests := []struct {
		name           string
		bearer         string
		deleteFn       func(id int64, token string) error
		expectedStatus int
	}{
		{
			name:           "no content - correct token",
			bearer:         "tok-alice",
			deleteFn:       func(id int64, token string) error { return nil },
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "unauthorized - missing header",
			bearer:         "",
			deleteFn:       nil,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "unauthorized - token belongs to another account",
			bearer: "tok-bob",
			deleteFn: func(id int64, token string) error {
				return apperr.Unauthorized("Invalid token for account with id %d", id)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "not found - unknown id",
			bearer: "tok-alice",
			deleteFn: func(id int64, token string) error {
				return apperr.NotFound("Account with id %d not found", id)
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccounts{deleteFn: tt.deleteFn})
			w := doRequest(router, http.MethodDelete, "/v1/accounts/1", tt.bearer, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
