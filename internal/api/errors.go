package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The relay keeps the error envelope of the original generation service:
// failures are reported as {"detail": ...}, where detail is either one string
// reason or a list of field-level validation errors. Clients normalize either
// shape into a single message.

// FieldError is one entry of a validation-error detail list.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// DetailError responds with a single string reason.
func DetailError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"detail": message})
}

// ValidationError responds 422 with a field-level error list.
func ValidationError(c *gin.Context, fields ...FieldError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fields})
}

// MissingField reports one required multipart field as absent.
func MissingField(c *gin.Context, field string) {
	ValidationError(c, FieldError{
		Loc:  []any{"body", field},
		Msg:  "field required",
		Type: "missing",
	})
}

// InvalidField reports one malformed multipart field.
func InvalidField(c *gin.Context, field, message string) {
	ValidationError(c, FieldError{
		Loc:  []any{"body", field},
		Msg:  message,
		Type: "value_error",
	})
}

// Forbidden rejects a request with a missing or wrong credential.
func Forbidden(c *gin.Context, message string) {
	DetailError(c, http.StatusForbidden, message)
}

// NotFound reports an absent asset or record.
func NotFound(c *gin.Context, message string) {
	DetailError(c, http.StatusNotFound, message)
}

// InternalError reports a relay-side failure.
func InternalError(c *gin.Context, message string) {
	DetailError(c, http.StatusInternalServerError, message)
}
