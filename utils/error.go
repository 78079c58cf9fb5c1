package utils

import "errors"

type ErrorKind string

const (
	ErrorKindNotFound          ErrorKind = "NOT_FOUND"
	ErrorKindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	ErrorKindInvalidState      ErrorKind = "INVALID_STATE"
	ErrorKindValidation        ErrorKind = "VALIDATION"
)

// AppError carries a machine-readable kind alongside the message so transport
// layers can map failures to status codes without string matching.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

func NotFoundError(message string) error {
	return &AppError{Kind: ErrorKindNotFound, Message: message}
}

func InsufficientStockError(message string) error {
	return &AppError{Kind: ErrorKindInsufficientStock, Message: message}
}

func InvalidStateError(message string) error {
	return &AppError{Kind: ErrorKindInvalidState, Message: message}
}

func ValidationError(message string) error {
	return &AppError{Kind: ErrorKindValidation, Message: message}
}

// KindOf returns the error's kind, or "" for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

var ErrorRecordNotFound = NotFoundError("record not found")
