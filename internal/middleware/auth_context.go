package middleware

import (
	"context"
	"net/http"
	"strings"

	"cats-graphql/internal/ports/auth"
)

type ctxKey string

const callerKey ctxKey = "caller"

// AuthContext:
// - Si verifier != nil y viene Bearer token => Verify() contra identidad y setea el Caller.
// - Si verifier == nil => modo dev: X-Debug-User-ID / X-Debug-User-Role arman el Caller.
// - Sin Caller el request sigue igual; cada resolver decide si exige token.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))

			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				if token == "" {
					token = "dev-" + uid
				}
				caller := auth.Caller{
					ID:    uid,
					Role:  auth.NormalizeRole(r.Header.Get("X-Debug-User-Role")),
					Token: token,
				}
				next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
				return
			}

			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos aquí: sin Caller, los resolvers devuelven NOT_AUTHORIZED.
				next.ServeHTTP(w, r)
				return
			}
			caller.Token = token

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func WithCaller(ctx context.Context, c auth.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// GetCaller devuelve el Caller del request. Sin auth devuelve el valor cero
// (sin token), que toda operación protegida rechaza.
func GetCaller(ctx context.Context) (auth.Caller, bool) {
	c, ok := ctx.Value(callerKey).(auth.Caller)
	return c, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
