package identity

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cats-graphql/internal/ports/auth"
)

func TestVerifier_ReadsNestedUser(t *testing.T) {
	ts, rec, _ := fakeIdentity(t, http.StatusOK,
		`{"message":"Token is valid","user":{"_id":"507f1f77bcf86cd799439011","user_name":"ana","role":"Admin"}}`)
	v := NewVerifier(newTestClient(t, ts.URL))

	c, err := v.Verify(context.Background(), " tok ")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", rec.last().header.Get("Authorization"))
	assert.Equal(t, "507f1f77bcf86cd799439011", c.ID)
	assert.Equal(t, "ana", c.Username)
	assert.Equal(t, auth.RoleAdmin, c.Role)
	assert.Equal(t, "tok", c.Token)
}

func TestVerifier_FlatUserDefaultsToUserRole(t *testing.T) {
	ts, _, _ := fakeIdentity(t, http.StatusOK, `{"id":"u1"}`)
	v := NewVerifier(newTestClient(t, ts.URL))

	c, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.ID)
	assert.Equal(t, auth.RoleUser, c.Role)
}

func TestVerifier_Errors(t *testing.T) {
	_, err := (*Verifier)(nil).Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotConfigured)

	ts, _, _ := fakeIdentity(t, http.StatusOK, `{"message":"ok"}`)
	v := NewVerifier(newTestClient(t, ts.URL))

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenEmpty)

	_, err = v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrMissingUserID)

	bad, _, _ := fakeIdentity(t, http.StatusUnauthorized, `{}`)
	_, err = NewVerifier(newTestClient(t, bad.URL)).Verify(context.Background(), "tok")
	require.Error(t, err)
}
