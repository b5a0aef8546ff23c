package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/gin-gonic/gin"
)

// notFoundMessages overrides the generated "<Entity> not found" text.
var notFoundMessages = map[string]string{
	"company": "Company profile not set",
}

// respondError maps typed errors to their status. Anything untyped is reported
// as a bare 500.
func respondError(c *gin.Context, funcName string, err error) {
	var (
		verr     *models.ValidationError
		notFound *models.NotFoundError
		conflict *models.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		body := gin.H{"message": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &notFound):
		msg, ok := notFoundMessages[notFound.Entity]
		if !ok {
			msg = capitalize(notFound.Entity) + " not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"message": msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"message": capitalize(conflict.Field) + " already exists",
			"field":   conflict.Field,
		})
	default:
		// logged by errorLogger
		_ = c.Error(err).SetMeta(funcName)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// bindJSON decodes the body into v, reporting decode failures as 400.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var (
			verr    *models.ValidationError
			typeErr *json.UnmarshalTypeError
		)
		if errors.As(err, &verr) {
			respondError(c, "bindJSON", verr)
			return false
		}
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			respondError(c, "bindJSON", models.NewValidationError(typeErr.Field, typeMessage(typeErr.Type)))
			return false
		}
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

func typeMessage(t reflect.Type) string {
	switch t {
	case reflect.TypeOf(models.Amount(0)):
		return "must be a number"
	case reflect.TypeOf(models.Date{}):
		return "must be a valid date"
	case reflect.TypeOf(""):
		return "must be a string"
	}
	return "has the wrong type"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
