package sessionstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Well-known keys inside a session blob. The interaction orchestrator owns
// KeyInteraction and must never touch anything else; KeyAuth is written by
// the store itself when a login is finalized.
const (
	KeyInteraction = "interaction"
	KeyAuth        = "auth"
)

// ErrNotFound is returned when a session id has no stored state.
var ErrNotFound = errors.New("session not found")

// Store is the opaque per-request session store keyed by the cookie-held
// session id. MergeAndSave merges only the supplied keys into whatever the
// store currently holds - it never replaces unrelated keys, so concurrent
// writers of disjoint keys do not clobber each other.
type Store interface {
	Load(ctx context.Context, sessionID string) (map[string]json.RawMessage, error)
	MergeAndSave(ctx context.Context, sessionID string, partial map[string]json.RawMessage) error

	// FinalizeLogin binds a completed login to the session: it clears the
	// interaction state, records the authenticated account with a signed
	// subject token, and returns the target the caller should redirect to.
	FinalizeLogin(ctx context.Context, sessionID, accountID string) (string, error)
}

// AuthState is the payload stored under KeyAuth after FinalizeLogin.
type AuthState struct {
	AccountID    string `json:"account_id"`
	SubjectToken string `json:"subject_token"`
	FinalizedAt  int64  `json:"finalized_at"`
}
