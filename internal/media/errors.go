package media

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind — категория ошибки доменного уровня.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
	KindDatabase   Kind = "database"
)

// Машиночитаемые коды ошибок в теле HTTP-ответа.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeStorageError    = "STORAGE_ERROR"
	CodeDatabaseError   = "DATABASE_ERROR"
)

// Error — единый вариант ошибки движка вместо иерархии типов.
// Ошибки коллабораторов никогда не отдаются наружу как есть:
// они заворачиваются с контекстом операции и идентификатора.
type Error struct {
	Kind       Kind
	HTTPStatus int
	Code       string
	Message    string
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidation — некорректные или не прошедшие политику входные данные.
func NewValidation(format string, args ...any) *Error {
	return &Error{
		Kind:       KindValidation,
		HTTPStatus: http.StatusBadRequest,
		Code:       CodeValidationError,
		Message:    fmt.Sprintf(format, args...),
	}
}

// NewNotFound — запись метаданных или объект в хранилище отсутствует.
func NewNotFound(format string, args ...any) *Error {
	return &Error{
		Kind:       KindNotFound,
		HTTPStatus: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf(format, args...),
	}
}

// WrapStorage заворачивает ошибку объектного хранилища с контекстом операции.
func WrapStorage(op, id string, cause error, retryable bool) *Error {
	return &Error{
		Kind:       KindStorage,
		HTTPStatus: http.StatusBadGateway,
		Code:       CodeStorageError,
		Message:    fmt.Sprintf("%s failed for media %s", op, id),
		Retryable:  retryable,
		Cause:      cause,
	}
}

// WrapDatabase заворачивает ошибку хранилища метаданных с контекстом операции.
func WrapDatabase(op, id string, cause error, retryable bool) *Error {
	return &Error{
		Kind:       KindDatabase,
		HTTPStatus: http.StatusInternalServerError,
		Code:       CodeDatabaseError,
		Message:    fmt.Sprintf("%s failed for media %s", op, id),
		Retryable:  retryable,
		Cause:      cause,
	}
}

// AsError извлекает доменную ошибку из цепочки.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind сообщает, относится ли ошибка к указанной категории.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
