package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(uid, tid, email string, ttl time.Duration) (string, error) {
	return "tok:" + uid + ":" + tid, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, testSigner)

	reg, err := svc.Register("a@example.com", "hunter22", "Acme")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.NotEmpty(t, reg.TenantID)

	// Stored hash is bcrypt, never the raw password.
	u, err := store.FindUserByEmail("a@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NotContains(t, string(u.PassHash), "hunter22")

	login, err := svc.Login("a@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.TenantID, login.TenantID)
	assert.Equal(t, reg.UserID, login.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, testSigner)

	_, err := svc.Register("a@example.com", "pw123456", "Acme")
	require.NoError(t, err)
	_, err = svc.Register("a@example.com", "pw123456", "Other")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorConflict, se.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, testSigner)
	_, err := svc.Register("a@example.com", "pw123456", "Acme")
	require.NoError(t, err)

	for _, tc := range []struct{ email, pass string }{
		{"a@example.com", "wrong"},
		{"nobody@example.com", "pw123456"},
	} {
		_, err := svc.Login(tc.email, tc.pass)
		se, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrorUnauthorized, se.Code)
	}
}

func TestRegisterRequiresEmailAndPassword(t *testing.T) {
	svc := NewAuthService(newFakeStore(), testSigner)
	for _, tc := range []struct{ email, pass string }{
		{"", "pw"},
		{"a@example.com", ""},
		{"a@example.com", "   "},
	} {
		_, err := svc.Register(tc.email, tc.pass, "Acme")
		se, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrorInvalid, se.Code)
	}
}
