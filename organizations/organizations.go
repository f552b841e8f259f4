package organizations

import "time"

// Organization groups users for access management. Organizations configured
// with enterprise SSO issuers auto-join users who register through that
// issuer.
type Organization struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	EnterpriseIssuers []string `json:"enterprise_issuers,omitempty"` // Issuers whose users join automatically
}

// Membership records a user belonging to an organization.
type Membership struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}

type Repo interface {
	Get(id string) (*Organization, error)
	ListByEnterpriseIssuer(issuer string) ([]*Organization, error)
	AddMember(organizationID, userID string) error
	Members(organizationID string) ([]Membership, error)
	Upsert(org *Organization) error
}
