package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-system/internal/domain"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Message string      `json:"message"`
	Error   bool        `json:"error"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{
		Message: message,
		Error:   false,
		Success: true,
		Data:    data,
	})
}

func respondError(c echo.Context, err error) error {
	return c.JSON(statusForError(err), Response{
		Message: err.Error(),
		Error:   true,
		Success: false,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrBidNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotBiddable),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrSelfMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
