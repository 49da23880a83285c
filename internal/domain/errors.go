package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrStorage           = errors.New("error de almacenamiento")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// Tipos de error expuestos a los clientes (campo code de la respuesta).
const (
	KindNotFound          = "NOT_FOUND"
	KindValidation        = "VALIDATION"
	KindInvalidTransition = "INVALID_TRANSITION"
	KindConflict          = "CONFLICT"
	KindStorage           = "STORAGE"
	KindUnauthorized      = "UNAUTHORIZED"
	KindForbidden         = "FORBIDDEN"
	KindInternal          = "INTERNAL"
)

// ValidationError entrada estructuralmente inválida. Items lista los elementos
// que provocaron el rechazo (ids de línea, campos).
type ValidationError struct {
	Message string
	Items   []string
}

func (e *ValidationError) Error() string {
	if len(e.Items) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Items, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(msg string, items ...string) error {
	return &ValidationError{Message: msg, Items: items}
}

// TransitionError cambio de estado fuera de la lista blanca.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: no se permite pasar de %q a %q", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Conflict envuelve ErrConflict con un mensaje concreto.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// NotFound envuelve ErrNotFound indicando qué recurso falta.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string { return e.op + ": " + e.err.Error() }

func (e *storageError) Is(target error) bool { return target == ErrStorage }

func (e *storageError) Unwrap() error { return e.err }

// StorageError envuelve un fallo inesperado del driver. errors.Is(err, ErrStorage) es true.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storageError{op: op, err: err}
}

// KindOf clasifica un error en uno de los Kind*.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}

// ValidationItems devuelve los elementos de un ValidationError, si lo es.
func ValidationItems(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Items
	}
	return nil
}
