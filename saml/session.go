package saml

import (
	"time"

	"github.com/pkg/errors"
)

// SessionLifetime is the absolute expiry of a correlation session, measured
// from creation.
const SessionLifetime = 60 * time.Minute

// ErrSessionNotFound covers both a missing and an expired correlation
// session - a reader must not be able to tell them apart.
var ErrSessionNotFound = errors.New("federation session not found")

// Session is one in-flight SP-initiated handshake. It correlates the
// inbound authentication request with the eventual OIDC callback through the
// cookie-held id. Rows are write-once: never mutated after creation, only
// deleted.
type Session struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	State         string    `json:"state"`           // Opaque value echoed back on the callback
	RequestID     string    `json:"request_id"`      // Inbound request id, echoed as InResponseTo
	RawRequest    string    `json:"raw_request"`     // Original encoded request, kept for binding echo
	Binding       string    `json:"binding"`         // Which binding delivered the request
	RelayState    string    `json:"relay_state,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// SessionRepo stores correlation sessions. Expiry is enforced by the reader:
// Get must treat a session past its ExpiresAt as not found. There is no
// background reaper.
type SessionRepo interface {
	Insert(session *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
}
