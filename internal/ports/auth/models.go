package auth

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller es la identidad del request (token + id + rol).
// Se pasa por valor a cada operación; nunca se guarda en estado compartido.
type Caller struct {
	ID       string
	Username string
	Role     Role
	Token    string
}

// HasToken es el primer chequeo de toda operación autenticada.
func (c Caller) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

// IsAdmin compara el rol exacto (tras normalizar espacios y mayúsculas).
// "superadmin" o "admin,user" no son admin.
func (c Caller) IsAdmin() bool {
	return NormalizeRole(string(c.Role)) == RoleAdmin
}

func NormalizeRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}
