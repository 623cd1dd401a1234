package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Cada uno es un "kind" estable
// que la capa HTTP traduce a un código y un status.
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrConflict                = errors.New("conflicto con el estado actual")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrInsufficientLots        = errors.New("lotes insuficientes para cubrir la cantidad solicitada")
	ErrInsufficientLotCapacity = errors.New("el lote no tiene saldo suficiente")
	ErrInvalidStateTransition  = errors.New("transición de estado inválida")
)

// Error es el error estructurado {kind, message} que ve el llamador.
// Unwrap devuelve el kind, así errors.Is(err, domain.ErrNotFound) sigue funcionando.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf construye un *Error del kind indicado con un mensaje formateado.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Code devuelve el código estable para el kind del error ("INTERNAL" si no es de dominio).
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrInsufficientLots):
		return "INSUFFICIENT_LOTS"
	case errors.Is(err, ErrInsufficientLotCapacity):
		return "INSUFFICIENT_LOT_CAPACITY"
	case errors.Is(err, ErrInvalidStateTransition):
		return "INVALID_STATE_TRANSITION"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

// Message devuelve el mensaje para el usuario: el del *Error si existe, si no el del kind.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return err.Error()
}
