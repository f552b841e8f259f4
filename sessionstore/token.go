package sessionstore

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const subjectTokenLifetime = 24 * time.Hour

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenSigner mints the subject token that FinalizeLogin attaches to an
// authenticated session. Full token issuance (access/refresh/ID tokens)
// belongs to the authorization server, not here.
type TokenSigner struct {
	key    []byte
	issuer string
}

func NewTokenSigner(key []byte, issuer string) (*TokenSigner, error) {
	if len(key) == 0 {
		return nil, errors.New("[NewTokenSigner] signing key is required")
	}
	return &TokenSigner{key: key, issuer: issuer}, nil
}

// Mint creates a signed subject token for the account.
func (ts *TokenSigner) Mint(accountID string) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.RegisteredClaims{
		Issuer:    ts.issuer,
		Subject:   accountID,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(subjectTokenLifetime)),
		ID:        uuid.New().String(),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.key)
	if err != nil {
		return "", errors.Wrap(err, "[TokenSigner.Mint] SignedString")
	}
	return signed, nil
}
