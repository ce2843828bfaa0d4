package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// フィールド単位のエラー
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type HTTPError struct {
	Status  int
	Message string
	Details []ErrorDetail
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func NewValidationError(details []ErrorDetail) error {
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Message: "validation failed",
		Details: details,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	errUnauthorized = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errForbidden    = NewHTTPError(http.StatusForbidden, "forbidden")
	errNotFound     = NewHTTPError(http.StatusNotFound, "not found")
	errDB           = NewHTTPError(http.StatusInternalServerError, "db error")
	errInternal     = NewHTTPError(http.StatusInternalServerError, "internal error")
)
