package interaction

import (
	"github.com/google/uuid"
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/users"
	"github.com/jrsteele09/go-signin-service/verification"
	"github.com/pkg/errors"
)

// candidates are the identifying fields a registration would claim, derived
// from the collected profile plus the verification record.
type candidates struct {
	Username     string
	PasswordHash string
	PrimaryEmail string
	PrimaryPhone string
	FirstName    string
	LastName     string
	Social       *verification.SocialPayload
	Enterprise   *verification.EnterprisePayload
}

// register creates a new user from the verification record and the collected
// profile. Ordering matters: every identifying field is checked for
// uniqueness before any write, the provisioning context is computed before
// the insert so the insert carries the initial roles, and the session binds
// the new user id only after every step has succeeded.
func (s *Session) register(record verification.Record) error {
	// At most one user per session; a second registration must never
	// overwrite the bound id.
	if s.userID != "" {
		return apierrors.ErrIdentityConflict
	}
	if !record.Verified || !record.Type.CanIdentifyUser() {
		return apierrors.ErrInvalidVerificationMethod
	}

	c := s.deriveCandidates(record)

	if err := guardUniqueness(s.deps.Users, c); err != nil {
		return err
	}

	pctx, err := s.deps.Provisioner.Compute()
	if err != nil {
		return errors.Wrap(err, "[Session.register] provisioner.Compute")
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Username:     c.Username,
		PrimaryEmail: c.PrimaryEmail,
		PrimaryPhone: c.PrimaryPhone,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Roles:        pctx.Roles,
		CreatedAt:    s.nowTime(),
	}
	if c.Social != nil {
		user.SocialIdentities = []users.SocialIdentity{{
			Provider:   c.Social.Provider,
			ExternalID: c.Social.ExternalID,
			Details:    c.Social.Details,
		}}
	}

	if err := s.deps.Users.Insert(user); err != nil {
		return errors.Wrap(err, "[Session.register] users.Insert")
	}

	if pctx.FirstUser {
		if err := s.deps.Provisioner.Bootstrap(user); err != nil {
			return errors.Wrap(err, "[Session.register] provisioner.Bootstrap")
		}
	}

	if c.Enterprise != nil {
		identity := users.EnterpriseIdentity{
			Issuer:     c.Enterprise.Issuer,
			ExternalID: c.Enterprise.ExternalID,
			Details:    c.Enterprise.Details,
		}
		if err := s.deps.Users.LinkEnterpriseIdentity(user.ID, identity); err != nil {
			return errors.Wrap(err, "[Session.register] LinkEnterpriseIdentity")
		}

		connector := s.deps.Experience.Experience().Connector(c.Enterprise.Issuer)
		if connector != nil && connector.OrganizationAutoJoin {
			if err := s.deps.Provisioner.AutoJoin(c.Enterprise.Issuer, user.ID); err != nil {
				return errors.Wrap(err, "[Session.register] provisioner.AutoJoin")
			}
		}
	}

	s.userID = user.ID
	return nil
}

func (s *Session) deriveCandidates(record verification.Record) candidates {
	c := candidates{
		Username:     s.profile.Username,
		PasswordHash: s.profile.PasswordHash,
		PrimaryEmail: s.profile.PrimaryEmail,
		PrimaryPhone: s.profile.PrimaryPhone,
	}

	switch record.Type {
	case verification.TypeEmailCode:
		c.PrimaryEmail = record.Email
	case verification.TypePhoneCode:
		c.PrimaryPhone = record.Phone
	case verification.TypeSocial:
		c.Social = record.Social
		if c.Social != nil {
			if c.PrimaryEmail == "" {
				c.PrimaryEmail = c.Social.Details["email"]
			}
			if c.Username == "" {
				c.Username = c.Social.Details["username"]
			}
			c.FirstName = c.Social.Details["first_name"]
			c.LastName = c.Social.Details["last_name"]
		}
	case verification.TypeEnterpriseSSO:
		c.Enterprise = record.Enterprise
		if c.Enterprise != nil {
			if c.PrimaryEmail == "" {
				c.PrimaryEmail = c.Enterprise.Details["email"]
			}
			c.FirstName = c.Enterprise.Details["first_name"]
			c.LastName = c.Enterprise.Details["last_name"]
		}
	}
	return c
}
