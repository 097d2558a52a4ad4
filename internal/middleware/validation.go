package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fgreter/sopra-fs19-server/internal/apperr"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

// ValidateRequest checks transport-level shape of a request body. The service
// layer remains the authority on business validation and its ordering.
func ValidateRequest(obj any) []ValidationError {
	var validationErrors []ValidationError

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	for _, err := range err.(validator.ValidationErrors) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}

	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithAppError maps the service's error kinds to HTTP status codes:
// Unauthorized→401, NotFound→404, Conflict→409, anything else→500.
func RespondWithAppError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		RespondWithError(c, http.StatusUnauthorized, err.Error())
	case apperr.KindNotFound:
		RespondWithError(c, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		RespondWithError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
