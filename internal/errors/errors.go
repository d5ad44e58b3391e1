package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError representa un error de aplicación con código HTTP y contexto
type AppError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Internal   error                  `json:"-"` // No se expone al cliente
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"-"` // HTTP status code
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap permite errors.Is / errors.As sobre el error interno
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewAppError crea un nuevo error de aplicación
func NewAppError(statusCode int, code int, message string, internal error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Internal:   internal,
		StatusCode: statusCode,
		Metadata:   make(map[string]interface{}),
		Retryable:  false,
	}
}

// WithDetails agrega detalles adicionales al error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithMetadata agrega metadata al error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithRetryable marca el error como reintentable
func (e *AppError) WithRetryable(retryable bool) *AppError {
	e.Retryable = retryable
	return e
}

// Códigos internos de la taxonomía
const (
	CodeValidation          = 40000
	CodeConfiguration       = 50001
	CodeUpstreamAuth        = 50201
	CodeUpstreamUnavailable = 50301
	CodeMalformedResponse   = 50202
)

// Errores predefinidos para la API externa (WBuy)
var (
	// ErrConfiguration: falta credencial u otra configuración; no se llama al upstream
	ErrConfiguration = func(details string) *AppError {
		return NewAppError(http.StatusInternalServerError, CodeConfiguration, "Configuration error", nil).
			WithDetails(details)
	}

	// ErrUpstreamAuth: 401/403 consistente, termina toda la resolución
	ErrUpstreamAuth = func(statusCode int, details string) *AppError {
		return NewAppError(http.StatusBadGateway, CodeUpstreamAuth, "Upstream rejected credentials", nil).
			WithDetails(details).
			WithMetadata("external_status_code", statusCode).
			WithRetryable(false)
	}

	ErrUpstreamUnavailable = func(statusCode int, details string, err error) *AppError {
		return NewAppError(http.StatusServiceUnavailable, CodeUpstreamUnavailable, "Upstream unavailable", err).
			WithDetails(details).
			WithMetadata("external_status_code", statusCode).
			WithRetryable(statusCode == 0 || statusCode == http.StatusTooManyRequests || statusCode >= 500)
	}

	ErrMalformedResponse = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, CodeMalformedResponse, "Malformed upstream response", err).
			WithDetails(details)
	}

	ErrValidation = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadRequest, CodeValidation, "Validation error", err).
			WithDetails(details)
	}
)

// AsAppError busca un *AppError en la cadena de errores
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode indica si la cadena contiene un AppError con ese código
func HasCode(err error, code int) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable verifica si un error es reintentable
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode obtiene el código HTTP de un error
func GetStatusCode(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
