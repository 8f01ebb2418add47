package apperrors

import "errors"

// Sentinels for every failure the services can report. Handlers map them to
// HTTP status codes; services wrap them with fmt.Errorf("%w: detail", ...).
var (
	ErrUnauthorized      = errors.New("unauthorized")       // 401
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrValidation        = errors.New("validation")         // 400
	ErrInsufficientStock = errors.New("insufficient stock") // 400
	ErrInvalidTransition = errors.New("invalid transition") // 400
	ErrUpstream          = errors.New("upstream error")     // 502
)
