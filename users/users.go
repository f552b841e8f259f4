package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a role assigned to a user at creation or later
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Full administrative privileges, granted to the first user
	RoleUser  RoleType = "user"  // Regular user
)

// SocialIdentity links a user to an account at a social identity provider.
type SocialIdentity struct {
	Provider   string            `json:"provider"`    // Connector target, e.g. "github", "google"
	ExternalID string            `json:"external_id"` // User id at the provider
	Details    map[string]string `json:"details,omitempty"`
}

// EnterpriseIdentity links a user to an account at an enterprise SSO issuer.
// Stored as a separate linkage row keyed by (issuer, external id).
type EnterpriseIdentity struct {
	Issuer     string            `json:"issuer"`      // IdP issuer URI
	ExternalID string            `json:"external_id"` // Subject at the issuer
	Details    map[string]string `json:"details,omitempty"`
}

type User struct {
	ID           string     `json:"id,omitempty"`            // Unique identifier for the user
	Username     string     `json:"username,omitempty"`      // Unique username
	PrimaryEmail string     `json:"primary_email,omitempty"` // User's primary email address
	PrimaryPhone string     `json:"primary_phone,omitempty"` // User's primary phone number
	PasswordHash string     `json:"-"`                       // Hashed version of the user's password - never serialize
	FirstName    string     `json:"first_name,omitempty"`    // First name of the user
	LastName     string     `json:"last_name,omitempty"`     // Last name of the user
	Roles        []RoleType `json:"roles,omitempty"`         // Roles assigned at insert time

	SocialIdentities     []SocialIdentity     `json:"social_identities,omitempty"`
	EnterpriseIdentities []EnterpriseIdentity `json:"enterprise_identities,omitempty"`

	Suspended    bool      `json:"suspended,omitempty"`      // Suspended users cannot sign in
	CreatedAt    time.Time `json:"created_at,omitempty"`     // When the user registered
	LastSignInAt time.Time `json:"last_sign_in_at,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HasRole checks whether the user carries the given role
func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasSocialIdentity checks for a linked social account at the given provider
func (u *User) HasSocialIdentity(provider, externalID string) bool {
	for _, id := range u.SocialIdentities {
		if id.Provider == provider && id.ExternalID == externalID {
			return true
		}
	}
	return false
}

// HasEnterpriseIdentity checks for a linked enterprise account at the given issuer
func (u *User) HasEnterpriseIdentity(issuer, externalID string) bool {
	for _, id := range u.EnterpriseIdentities {
		if id.Issuer == issuer && id.ExternalID == externalID {
			return true
		}
	}
	return false
}
