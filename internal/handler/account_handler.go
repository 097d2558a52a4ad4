package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fgreter/sopra-fs19-server/internal/middleware"
	"github.com/fgreter/sopra-fs19-server/internal/models"
	"github.com/fgreter/sopra-fs19-server/internal/service"
)

// Accounts defines the account operations used by AccountHandler.
type Accounts interface {
	ListAccounts(ctx context.Context, token string) ([]models.Account, error)
	Register(ctx context.Context, params service.RegisterParams) (*models.Account, error)
	GetAccount(ctx context.Context, id int64, token string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch service.AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int64, token string) error
}

// AccountHandler is a thin pass-through: it decodes requests, hands them to
// the account service, and maps errors to status codes.
type AccountHandler struct {
	accounts Accounts
}

type RegisterAccountRequest struct {
	Username    string       `json:"username" validate:"required"`
	DisplayName string       `json:"displayName" validate:"required"`
	Password    string       `json:"password" validate:"required,min=4"`
	Birthday    *models.Date `json:"birthday"`
}

// UpdateAccountRequest carries the session token in the body: update
// authorization is keyed on the patch's embedded token matching the target
// account's stored token.
type UpdateAccountRequest struct {
	Token    string       `json:"token" validate:"required"`
	Username *string      `json:"username"`
	Birthday *models.Date `json:"birthday"`
}

func NewAccountHandler(accounts Accounts) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterAccount creates a new account. The response includes the freshly
// minted session token and a Location header pointing at the new resource.
func (h *AccountHandler) RegisterAccount(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), service.RegisterParams{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Birthday:    req.Birthday,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/v1/accounts/%d", account.ID))
	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	token, _ := middleware.GetToken(c)

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), token)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	views := make([]*models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, accounts[i].View())
	}
	c.JSON(http.StatusOK, views)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	token, _ := middleware.GetToken(c)

	account, err := h.accounts.GetAccount(c.Request.Context(), id, token)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, account.View())
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.accounts.UpdateAccount(c.Request.Context(), id, service.AccountPatch{
		Token:    req.Token,
		Username: req.Username,
		Birthday: req.Birthday,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, account.View())
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	token, _ := middleware.GetToken(c)

	if err := h.accounts.DeleteAccount(c.Request.Context(), id, token); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// accountID parses the :id path parameter. A non-numeric id cannot reference
// any stored account, so it reads as not found.
func accountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return 0, false
	}
	return id, true
}
