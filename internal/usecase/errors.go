package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// 機械的に判定できるエラー種別（レスポンスの "kind"）
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindForbidden          ErrorKind = "forbidden"
	KindNotFound           ErrorKind = "not_found"
	KindInsufficientStock  ErrorKind = "insufficient_stock"
	KindInvalidState       ErrorKind = "invalid_state"
	KindConflict           ErrorKind = "conflict"
	KindInternal           ErrorKind = "internal"
)

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

// statusから種別を決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kindFromStatus(status),
		Message: message,
	}
}

func NewKindError(status int, kind ErrorKind, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kind,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func kindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

// よく使うもの
func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func errInvalidState(message string) error {
	return NewKindError(http.StatusConflict, KindInvalidState, message)
}

func errInsufficientStock() error {
	return NewKindError(http.StatusBadRequest, KindInsufficientStock, "Insufficient product quantity")
}

func errBusy() error {
	return NewHTTPError(http.StatusConflict, "product is busy, retry later")
}
