package repofake

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-signin-service/organizations"
	"github.com/pkg/errors"
)

var _ organizations.Repo = (*FakeOrganizationRepo)(nil)

type FakeOrganizationRepo struct {
	orgs    map[string]*organizations.Organization
	members map[string][]organizations.Membership // organizationID -> memberships
	lock    sync.RWMutex
}

func NewFakeOrganizationRepo() *FakeOrganizationRepo {
	return &FakeOrganizationRepo{
		orgs:    make(map[string]*organizations.Organization),
		members: make(map[string][]organizations.Membership),
	}
}

func (or *FakeOrganizationRepo) Get(id string) (*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()

	org, ok := or.orgs[id]
	if !ok {
		return nil, errors.New("organization not found")
	}
	return org, nil
}

func (or *FakeOrganizationRepo) ListByEnterpriseIssuer(issuer string) ([]*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()

	var matched []*organizations.Organization
	for _, org := range or.orgs {
		for _, iss := range org.EnterpriseIssuers {
			if iss == issuer {
				matched = append(matched, org)
				break
			}
		}
	}
	return matched, nil
}

func (or *FakeOrganizationRepo) AddMember(organizationID, userID string) error {
	or.lock.Lock()
	defer or.lock.Unlock()

	if _, ok := or.orgs[organizationID]; !ok {
		return errors.New("organization not found")
	}
	for _, m := range or.members[organizationID] {
		if m.UserID == userID {
			return nil // already a member
		}
	}
	or.members[organizationID] = append(or.members[organizationID], organizations.Membership{
		OrganizationID: organizationID,
		UserID:         userID,
		JoinedAt:       time.Now(),
	})
	return nil
}

func (or *FakeOrganizationRepo) Members(organizationID string) ([]organizations.Membership, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	return or.members[organizationID], nil
}

func (or *FakeOrganizationRepo) Upsert(org *organizations.Organization) error {
	or.lock.Lock()
	defer or.lock.Unlock()

	if org.ID == "" {
		return errors.New("organization id is required")
	}
	or.orgs[org.ID] = org
	return nil
}
