package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fgreter/sopra-fs19-server/internal/middleware"
	"github.com/fgreter/sopra-fs19-server/internal/models"
	"github.com/fgreter/sopra-fs19-server/internal/service"
)

// Authenticator defines the login operation used by AuthHandler.
type Authenticator interface {
	Authenticate(ctx context.Context, creds service.Credentials) (*models.Account, error)
}

// AuthHandler handles credential login. Registration lives on the accounts
// resource; there is no logout and no token refresh in this design.
type AuthHandler struct {
	auth Authenticator
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates a username/password pair. The response carries the
// account's existing session token — login never rotates it.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.auth.Authenticate(c.Request.Context(), service.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
