package verification

import (
	"time"

	"github.com/google/uuid"
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/users"
)

// Type tags a verification record variant. The set is closed: every variant
// the orchestrator can hold is listed here.
type Type string

const (
	TypePassword      Type = "password"
	TypeEmailCode     Type = "email_code"
	TypePhoneCode     Type = "phone_code"
	TypeSocial        Type = "social"
	TypeEnterpriseSSO Type = "enterprise_sso"
	TypeTOTP          Type = "totp"
	TypeBackupCode    Type = "backup_code"
)

// CanIdentifyUser reports whether records of this type may resolve an
// existing user. MFA proofs confirm possession for an already-identified
// user and never identify one themselves.
func (t Type) CanIdentifyUser() bool {
	switch t {
	case TypeTOTP, TypeBackupCode:
		return false
	default:
		return true
	}
}

// SocialPayload carries the asserted identity from a social provider.
type SocialPayload struct {
	Provider   string            `json:"provider"`
	ExternalID string            `json:"external_id"`
	Details    map[string]string `json:"details,omitempty"` // name, email, avatar as asserted
}

// EnterprisePayload carries the asserted identity from an enterprise SSO issuer.
type EnterprisePayload struct {
	Issuer     string            `json:"issuer"`
	ExternalID string            `json:"external_id"`
	Details    map[string]string `json:"details,omitempty"`
}

// Record is server-held proof that a possession or knowledge check
// succeeded. It is created only after the check passed, serialized into the
// interaction payload, and discarded when the session is submitted or
// expires. At most one payload group is populated, matching the type tag.
type Record struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`

	// Password verification: the user whose hash matched.
	UserID string `json:"user_id,omitempty"`

	// Code verification: the address the code was delivered to and matched
	// against.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Social     *SocialPayload     `json:"social,omitempty"`
	Enterprise *EnterprisePayload `json:"enterprise,omitempty"`
}

func newRecord(t Type) Record {
	return Record{
		ID:        uuid.New().String(),
		Type:      t,
		Verified:  true,
		CreatedAt: time.Now(),
	}
}

// Identify resolves the existing user this record belongs to. Only verified
// records of a capable type may identify; everything else is an
// invalid-verification-method error. A missing user surfaces users.ErrNotFound.
func (r *Record) Identify(repo users.Repo) (*users.User, error) {
	if !r.Type.CanIdentifyUser() || !r.Verified {
		return nil, apierrors.ErrInvalidVerificationMethod
	}

	switch r.Type {
	case TypePassword:
		return repo.GetByID(r.UserID)
	case TypeEmailCode:
		return repo.FindByEmail(r.Email)
	case TypePhoneCode:
		return repo.FindByPhone(r.Phone)
	case TypeSocial:
		if r.Social == nil {
			return nil, apierrors.ErrInvalidVerificationMethod
		}
		return repo.FindBySocialIdentity(r.Social.Provider, r.Social.ExternalID)
	case TypeEnterpriseSSO:
		if r.Enterprise == nil {
			return nil, apierrors.ErrInvalidVerificationMethod
		}
		return repo.FindByEnterpriseIdentity(r.Enterprise.Issuer, r.Enterprise.ExternalID)
	}
	return nil, apierrors.ErrInvalidVerificationMethod
}
