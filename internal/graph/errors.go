package graph

import (
	"errors"

	"cats-graphql/internal/domain/cats"
	"cats-graphql/internal/platform/apperror"
)

// toGraphQLError traduce errores de dominio al error tipado que ve el cliente.
func toGraphQLError(err error) *apperror.Error {
	if ae, ok := apperror.As(err); ok {
		return ae
	}
	switch {
	case errors.Is(err, cats.ErrNotAuthorized):
		return apperror.NotAuthorized("Not authorized")
	case errors.Is(err, cats.ErrNotFound):
		return apperror.NotFound("Cat not found", err)
	case errors.Is(err, cats.ErrCreationFailed):
		return apperror.CreationFailed("Cat not created", err)
	case errors.Is(err, cats.ErrInvalidBounds), errors.Is(err, cats.ErrInvalidInput):
		return apperror.BadUserInput(err.Error(), err)
	default:
		return apperror.Internal("internal error", err)
	}
}
