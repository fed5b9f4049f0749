package routing

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrIdNil = 0
	// filter registration and configuration
	ErrIdInvalidArgument = 400
	// missing actions / controllers
	ErrIdNotFound = 404
	ErrIdConfig   = 500
)

// AppError is the error type returned by everything in this package.
// HTTPStatus is the status a HTTP layer is expected to translate it into.
type AppError struct {
	Id         int
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any *AppError with the same Id, so the sentinels below work
// with errors.Is regardless of the message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Id == e.Id
}

var (
	ErrInvalidArgument = &AppError{ErrIdInvalidArgument, "invalid argument", http.StatusBadRequest, nil}
	ErrNotFound        = &AppError{ErrIdNotFound, "not found", http.StatusNotFound, nil}
	ErrConfig          = &AppError{ErrIdConfig, "invalid configuration", http.StatusInternalServerError, nil}
)

func invalidArgument(format string, v ...interface{}) error {
	return &AppError{
		Id:         ErrIdInvalidArgument,
		Message:    fmt.Sprintf(format, v...),
		HTTPStatus: http.StatusBadRequest,
	}
}

func notFound(msg string) error {
	return &AppError{
		Id:         ErrIdNotFound,
		Message:    msg,
		HTTPStatus: http.StatusNotFound,
	}
}

func configError(msg string, err error) error {
	return &AppError{
		Id:         ErrIdConfig,
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// HTTPStatus returns the response status for err: 200 for nil, the
// AppError status when there is one in the chain, 500 otherwise.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ae *AppError
	if errors.As(err, &ae) && ae.HTTPStatus != 0 {
		return ae.HTTPStatus
	}
	return http.StatusInternalServerError
}
