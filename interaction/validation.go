package interaction

import (
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/users"
	"github.com/pkg/errors"
)

// guardUniqueness checks every populated identifying field against storage
// before a registration writes anything. Checks run independently and the
// first collision found is the one reported - callers get a single
// field-specific conflict, not an aggregate.
func guardUniqueness(repo users.Repo, c candidates) error {
	type check struct {
		field string
		find  func() (*users.User, error)
	}

	checks := []check{}
	if c.Username != "" {
		checks = append(checks, check{"username", func() (*users.User, error) {
			return repo.FindByUsername(c.Username)
		}})
	}
	if c.PrimaryEmail != "" {
		checks = append(checks, check{"email", func() (*users.User, error) {
			return repo.FindByEmail(c.PrimaryEmail)
		}})
	}
	if c.PrimaryPhone != "" {
		checks = append(checks, check{"phone", func() (*users.User, error) {
			return repo.FindByPhone(c.PrimaryPhone)
		}})
	}
	if c.Social != nil {
		checks = append(checks, check{"identity", func() (*users.User, error) {
			return repo.FindBySocialIdentity(c.Social.Provider, c.Social.ExternalID)
		}})
	}
	if c.Enterprise != nil {
		checks = append(checks, check{"identity", func() (*users.User, error) {
			return repo.FindByEnterpriseIdentity(c.Enterprise.Issuer, c.Enterprise.ExternalID)
		}})
	}

	for _, ch := range checks {
		existing, err := ch.find()
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				continue
			}
			return errors.Wrapf(err, "[guardUniqueness] %s lookup", ch.field)
		}
		if existing != nil {
			return apierrors.FieldConflict(ch.field)
		}
	}
	return nil
}
