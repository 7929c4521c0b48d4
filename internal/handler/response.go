package handler

import (
	"errors"
	"net/http"

	"loadboard/internal/geocode"
	"loadboard/internal/middleware"
	"loadboard/internal/model"
	"loadboard/internal/repository"
	"loadboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are logged and replaced by a generic message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(code, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: publicMessage(err)})
}

// publicMessage strips operation prefixes from errors safe to show.
func publicMessage(err error) string {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	for _, sentinel := range []error{
		service.ErrUserAlreadyExists, service.ErrInvalidCredentials, service.ErrInvalidToken,
		service.ErrTokenRevoked, service.ErrUserNotFound, service.ErrLoadNotFound,
		service.ErrCallNotSupported, service.ErrNoDocument, service.ErrInvalidFileFormat,
		service.ErrFileSizeExceeded,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var (
		vErr   *model.ValidationError
		geoErr *geocode.GeocodeError
	)
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, service.ErrNoDocument),
		errors.Is(err, service.ErrInvalidFileFormat):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrLoadNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, service.ErrFileSizeExceeded):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, service.ErrCallNotSupported),
		errors.As(err, &geoErr):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// authUserID reads the uid set by the JWT middleware.
func authUserID(c *gin.Context) string {
	return c.GetString(middleware.AuthUserKey)
}
