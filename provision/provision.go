package provision

import (
	"github.com/google/uuid"
	"github.com/jrsteele09/go-signin-service/organizations"
	"github.com/jrsteele09/go-signin-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Service performs the side effects of user creation: first-admin bootstrap,
// initial role assignment, and enterprise organization auto-join.
type Service struct {
	users  users.Repo
	orgs   organizations.Repo
	logger zerolog.Logger
}

func New(userRepo users.Repo, orgRepo organizations.Repo, logger zerolog.Logger) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[provision.New] users repo is required")
	}
	if orgRepo == nil {
		return nil, errors.New("[provision.New] organizations repo is required")
	}
	return &Service{users: userRepo, orgs: orgRepo, logger: logger}, nil
}

// Context captures the provisioning decisions that must be made strictly
// before the user row is inserted, so the insert can carry the initial role
// assignment atomically.
type Context struct {
	FirstUser bool
	Roles     []users.RoleType
}

// Compute determines the provisioning context for the next registration. The
// very first user in the tenant receives full administrative privileges.
func (s *Service) Compute() (Context, error) {
	count, err := s.users.Count()
	if err != nil {
		return Context{}, errors.Wrap(err, "[provision.Compute] users.Count")
	}
	if count == 0 {
		return Context{FirstUser: true, Roles: []users.RoleType{users.RoleAdmin, users.RoleUser}}, nil
	}
	return Context{Roles: []users.RoleType{users.RoleUser}}, nil
}

// Bootstrap runs once, after the first user has been inserted: it creates
// the default organization and makes the new admin its first member.
func (s *Service) Bootstrap(user *users.User) error {
	org := &organizations.Organization{
		ID:   uuid.New().String(),
		Name: "Default",
	}
	if err := s.orgs.Upsert(org); err != nil {
		return errors.Wrap(err, "[provision.Bootstrap] orgs.Upsert")
	}
	if err := s.orgs.AddMember(org.ID, user.ID); err != nil {
		return errors.Wrap(err, "[provision.Bootstrap] orgs.AddMember")
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("organization_id", org.ID).
		Msg("first user bootstrapped with admin privileges")
	return nil
}

// AutoJoin adds the user to every organization configured for the
// enterprise issuer they registered through.
func (s *Service) AutoJoin(issuer, userID string) error {
	orgs, err := s.orgs.ListByEnterpriseIssuer(issuer)
	if err != nil {
		return errors.Wrap(err, "[provision.AutoJoin] ListByEnterpriseIssuer")
	}
	for _, org := range orgs {
		if err := s.orgs.AddMember(org.ID, userID); err != nil {
			return errors.Wrap(err, "[provision.AutoJoin] AddMember")
		}
	}
	return nil
}
