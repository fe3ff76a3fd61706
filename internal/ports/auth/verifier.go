package auth

import "context"

// AuthVerifier verifica un token contra el servicio de identidad y devuelve el Caller.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Caller, error)
}
