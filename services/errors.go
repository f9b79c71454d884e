package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError -> submission tidak lengkap atau salah. Ditolak sebelum menyentuh database.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidStateError -> order sudah di status terminal
type InvalidStateError struct {
	OrderID string
	Status  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("order %s is already %s", e.OrderID, e.Status)
}

type PermissionError struct {
	UserID string
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s", e.UserID, e.Action)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// PersistenceError membungkus kegagalan storage. Detailnya hanya untuk log server.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Pesan default yang aman untuk client
const (
	MsgNoPermission   = "You do not have permission"
	MsgGenericFailure = "Something went wrong while processing your order, please try again"
)

// PublicMessage mengubah error apa pun menjadi pesan yang aman ditampilkan ke client.
// Error yang tidak dikenal diperlakukan seperti PersistenceError.
func PublicMessage(err error) string {
	var (
		ve *ValidationError
		se *InvalidStateError
		pe *PermissionError
		nf *NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &se):
		return fmt.Sprintf("Order is already %s", se.Status)
	case errors.As(err, &pe):
		return MsgNoPermission
	case errors.As(err, &nf):
		return nf.Error()
	default:
		return MsgGenericFailure
	}
}

func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		se *InvalidStateError
		pe *PermissionError
		nf *NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusForbidden
	case errors.As(err, &nf):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsExpected -> error yang cukup dilaporkan ke client, tidak perlu log level error
func IsExpected(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
