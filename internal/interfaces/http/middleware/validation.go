package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/erp/lineage/internal/domain/lineage"
	"github.com/erp/lineage/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// SetupValidator configures the binding validator with JSON field names
// and the domain-specific tags used in request DTOs.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("entitytype", func(fl validator.FieldLevel) bool {
		return lineage.EntityType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return lineage.BusinessStatus(fl.Field().String()).IsValid()
	})
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	requestID := getRequestIDFromContext(c)
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
}

func getRequestIDFromContext(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "entitytype":
		return "Must be a known entity type"
	case "status":
		return "Must be a canonical business status"
	case "min":
		return "Must be at least " + e.Param()
	case "max":
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
