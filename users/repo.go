package users

import (
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by the Find* methods when no user matches.
var ErrNotFound = errors.New("user not found")

// Repo defines the user storage operations the interaction core depends on.
// Insert must persist the user together with its initial roles atomically.
type Repo interface {
	GetByID(id string) (*User, error)
	FindByUsername(username string) (*User, error)
	FindByEmail(email string) (*User, error)
	FindByPhone(phone string) (*User, error)
	FindBySocialIdentity(provider, externalID string) (*User, error)
	FindByEnterpriseIdentity(issuer, externalID string) (*User, error)

	// Insert persists a new user, carrying its initial role assignment
	Insert(user *User) error

	// LinkEnterpriseIdentity inserts a linkage row keyed by (issuer, external id)
	LinkEnterpriseIdentity(userID string, identity EnterpriseIdentity) error

	// UpdateLastSignIn stamps the user's last successful sign-in
	UpdateLastSignIn(id string, at time.Time) error

	// Count returns the total number of users, used for first-user detection
	Count() (int, error)
}
