package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cats-graphql/internal/ports/auth"
)

var (
	ErrTokenEmpty    = errors.New("token is empty")
	ErrMissingUserID = errors.New("identity response missing user id")
)

// Verifier implementa auth.AuthVerifier usando GET /users/token.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Caller, error) {
	if v == nil || v.client == nil {
		return auth.Caller{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Caller{}, ErrTokenEmpty
	}

	doc, err := v.client.CheckToken(ctx, token)
	if err != nil {
		return auth.Caller{}, fmt.Errorf("identity verify failed: %w", err)
	}

	caller := callerFromDocument(doc)
	if caller.ID == "" {
		return auth.Caller{}, ErrMissingUserID
	}
	caller.Token = token
	return caller, nil
}

// callerFromDocument lee {user: {...}} o el usuario plano.
// El id puede venir como "id" o "_id".
func callerFromDocument(doc Document) auth.Caller {
	user := doc
	if nested, ok := doc["user"].(map[string]any); ok {
		user = nested
	}

	id := str(user["id"])
	if id == "" {
		id = str(user["_id"])
	}

	role := auth.NormalizeRole(str(user["role"]))
	if role == "" {
		role = auth.RoleUser
	}

	return auth.Caller{
		ID:       id,
		Username: str(user["user_name"]),
		Role:     role,
	}
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
