package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/middleware"
	"github.com/luminode/caster/internal/model"
)

type APIError struct {
	Code    int
	Message string
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

// ErrorFrom translates store errors into API errors: validation failures
// surface unmodified as 400s, missing records as 404s, everything else as
// the fallback message.
func ErrorFrom(err error, fallback string) *APIError {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{Code: http.StatusBadRequest, Message: verr.Error()}
	case errors.Is(err, db.ErrNotFound):
		return &APIError{Code: http.StatusNotFound, Message: "not found"}
	default:
		return &APIError{Code: http.StatusInternalServerError, Message: fallback}
	}
}
