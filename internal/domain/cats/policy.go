package cats

import (
	"strings"

	"cats-graphql/internal/ports/auth"
)

// Reglas de autorización, en este orden:
// 1. sin token => ErrNotAuthorized, antes de cualquier otra cosa
// 2. owner-scoped: caller.ID == cat.Owner (ids normalizados)
// 3. admin-scoped: rol exactamente "admin", sin mirar ownership

func requireToken(caller auth.Caller) error {
	if !caller.HasToken() {
		return ErrNotAuthorized
	}
	return nil
}

func requireOwner(caller auth.Caller, c Cat) error {
	if err := requireToken(caller); err != nil {
		return err
	}
	if !IsOwner(caller, c) {
		return ErrNotAuthorized
	}
	return nil
}

func requireAdmin(caller auth.Caller) error {
	if err := requireToken(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return ErrNotAuthorized
	}
	return nil
}

// IsOwner compara ids como string exacto, sin espacios alrededor.
// Los ids los emite el servicio de identidad y son opacos: "ABC" != "abc".
func IsOwner(caller auth.Caller, c Cat) bool {
	id := normalizeID(caller.ID)
	return id != "" && id == normalizeID(c.Owner)
}

func normalizeID(s string) string {
	return strings.TrimSpace(s)
}
