package interaction

import (
	"github.com/jrsteele09/go-signin-service/experience"
	"github.com/jrsteele09/go-signin-service/verification"
)

// Profile holds the fields collected for a pending registration. The
// password is hashed the moment it is accepted; the plaintext never enters
// the session payload.
type Profile struct {
	Username     string `json:"username,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
	PrimaryEmail string `json:"primary_email,omitempty"`
	PrimaryPhone string `json:"primary_phone,omitempty"`
}

// Payload is the serializable state of an interaction session: everything
// needed to reconstruct the session on the next request. Collaborators
// (repos, validators) are never part of it.
type Payload struct {
	Event   experience.Event      `json:"event,omitempty"`
	UserID  string                `json:"user_id,omitempty"`
	Profile Profile               `json:"profile,omitzero"`
	Records []verification.Record `json:"verification_records,omitempty"`
}

// Payload returns the session's serializable state. Records are keyed by
// type internally; the slice order follows no contract.
func (s *Session) Payload() Payload {
	records := make([]verification.Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	return Payload{
		Event:   s.event,
		UserID:  s.userID,
		Profile: s.profile,
		Records: records,
	}
}

func (s *Session) applyPayload(p Payload) {
	s.event = p.Event
	s.userID = p.UserID
	s.profile = p.Profile
	for _, r := range p.Records {
		s.records[r.Type] = r
	}
}
