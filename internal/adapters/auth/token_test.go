package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTTokens_IssueAndVerify(t *testing.T) {
	issuer, verifier := NewJWTTokens("test-secret")

	token, err := issuer.Issue("a1b2c3d4e5f60718", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	eventURL, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "a1b2c3d4e5f60718", eventURL)
}

func TestJWTTokens_VerifyWrongSecret(t *testing.T) {
	issuer, _ := NewJWTTokens("secret-a")
	_, verifier := NewJWTTokens("secret-b")

	token, err := issuer.Issue("a1b2c3d4e5f60718", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTTokens_VerifyExpired(t *testing.T) {
	issuer, verifier := NewJWTTokens("test-secret")

	token, err := issuer.Issue("a1b2c3d4e5f60718", -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTTokens_VerifyGarbage(t *testing.T) {
	_, verifier := NewJWTTokens("test-secret")
	_, err := verifier.Verify("not-a-token")
	require.Error(t, err)
}
