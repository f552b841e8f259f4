package sessionstore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-signin-service/sessionstore"
)

const (
	testSessionID  = "session-1"
	testAccountID  = "account-1"
	testSigningKey = "0123456789abcdef0123456789abcdef"
	testIssuer     = "https://signin.example.com"
	testRedirectTo = "https://app.example.com/dashboard"
)

func newSigner(t *testing.T) *sessionstore.TokenSigner {
	t.Helper()
	signer, err := sessionstore.NewTokenSigner([]byte(testSigningKey), testIssuer)
	require.NoError(t, err)
	return signer
}

func newRedisStore(t *testing.T) *sessionstore.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return sessionstore.NewRedisStore(client, newSigner(t), testRedirectTo)
}

// storeContract runs the behavior shared by every Store implementation.
func storeContract(t *testing.T, store sessionstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing session is empty", func(t *testing.T) {
		stored, err := store.Load(ctx, "unknown-session")
		require.NoError(t, err)
		require.Empty(t, stored)
	})

	t.Run("merge preserves unrelated keys", func(t *testing.T) {
		require.NoError(t, store.MergeAndSave(ctx, testSessionID, map[string]json.RawMessage{
			"unrelated": json.RawMessage(`{"kept":true}`),
		}))
		require.NoError(t, store.MergeAndSave(ctx, testSessionID, map[string]json.RawMessage{
			sessionstore.KeyInteraction: json.RawMessage(`{"event":"SignIn"}`),
		}))

		stored, err := store.Load(ctx, testSessionID)
		require.NoError(t, err)
		require.JSONEq(t, `{"kept":true}`, string(stored["unrelated"]))
		require.JSONEq(t, `{"event":"SignIn"}`, string(stored[sessionstore.KeyInteraction]))
	})

	t.Run("finalize clears interaction and writes auth", func(t *testing.T) {
		redirectTo, err := store.FinalizeLogin(ctx, testSessionID, testAccountID)
		require.NoError(t, err)
		require.Equal(t, testRedirectTo, redirectTo)

		stored, err := store.Load(ctx, testSessionID)
		require.NoError(t, err)
		require.NotContains(t, stored, sessionstore.KeyInteraction)
		require.JSONEq(t, `{"kept":true}`, string(stored["unrelated"]))

		var auth sessionstore.AuthState
		require.NoError(t, json.Unmarshal(stored[sessionstore.KeyAuth], &auth))
		require.Equal(t, testAccountID, auth.AccountID)
		require.NotEmpty(t, auth.SubjectToken)
	})
}

func TestInMemoryStore_Contract(t *testing.T) {
	storeContract(t, sessionstore.NewInMemoryStore(newSigner(t), testRedirectTo))
}

func TestRedisStore_Contract(t *testing.T) {
	storeContract(t, newRedisStore(t))
}

func TestTokenSigner_MintsVerifiableSubjectToken(t *testing.T) {
	signer := newSigner(t)

	minted, err := signer.Mint(testAccountID)
	require.NoError(t, err)

	parsed, err := jwtlib.ParseWithClaims(minted, &jwtlib.RegisteredClaims{}, func(token *jwtlib.Token) (any, error) {
		return []byte(testSigningKey), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	require.True(t, ok)
	require.Equal(t, testAccountID, claims.Subject)
	require.Equal(t, testIssuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestNewTokenSigner_RequiresKey(t *testing.T) {
	_, err := sessionstore.NewTokenSigner(nil, testIssuer)
	require.Error(t, err)
}
