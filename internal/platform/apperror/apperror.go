// Package apperror define los errores que cruzan el borde GraphQL.
// Cada Error lleva un Kind que termina en extensions.code de la respuesta.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotAuthorized  Kind = "NOT_AUTHORIZED"
	KindNotFound       Kind = "NOT_FOUND"
	KindValidation     Kind = "VALIDATION_ERROR"
	KindCreationFailed Kind = "NOT_CREATED"
	KindBadUserInput   Kind = "BAD_USER_INPUT"
	KindInternal       Kind = "INTERNAL_SERVER_ERROR"
)

// Error es el error tipado que ven los clientes.
// graphql-go usa Error() como message de la respuesta, así que solo devuelve
// Message; Err queda para logs (ver Detail).
type Error struct {
	Kind      Kind
	Message   string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return e.Message
}

// Detail incluye la causa, para logs.
func (e *Error) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extensions implementa gqlerrors.ExtendedError de graphql-go.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code": string(e.Kind),
	}
	if e.Operation != "" {
		ext["operation"] = e.Operation
	}
	return ext
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotAuthorized(message string) *Error {
	return New(KindNotAuthorized, message, nil)
}

func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

func CreationFailed(message string, err error) *Error {
	return New(KindCreationFailed, message, err)
}

func BadUserInput(message string, err error) *Error {
	return New(KindBadUserInput, message, err)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// As extrae el *Error de la cadena, si existe.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf devuelve el Kind del error o KindInternal si no es un *Error.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// WithOperation devuelve una copia con la operación GraphQL anotada.
// graphql-go solo lee Extensions() del error original, así que el resultado
// debe devolverse sin envolver.
func WithOperation(err error, operation string) *Error {
	ae, ok := As(err)
	if !ok {
		ae = Internal("internal error", err)
	}
	cp := *ae
	cp.Operation = operation
	return &cp
}
