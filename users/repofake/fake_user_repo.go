package repofake

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-signin-service/users"
	"github.com/pkg/errors"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]*users.User
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users: make(map[string]*users.User),
	}
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) FindByUsername(username string) (*users.User, error) {
	return ur.find(func(u *users.User) bool { return u.Username == username })
}

func (ur *FakeUserRepo) FindByEmail(email string) (*users.User, error) {
	return ur.find(func(u *users.User) bool { return u.PrimaryEmail == email })
}

func (ur *FakeUserRepo) FindByPhone(phone string) (*users.User, error) {
	return ur.find(func(u *users.User) bool { return u.PrimaryPhone == phone })
}

func (ur *FakeUserRepo) FindBySocialIdentity(provider, externalID string) (*users.User, error) {
	return ur.find(func(u *users.User) bool { return u.HasSocialIdentity(provider, externalID) })
}

func (ur *FakeUserRepo) FindByEnterpriseIdentity(issuer, externalID string) (*users.User, error) {
	return ur.find(func(u *users.User) bool { return u.HasEnterpriseIdentity(issuer, externalID) })
}

func (ur *FakeUserRepo) Insert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		return errors.New("user id is required")
	}
	if _, ok := ur.users[user.ID]; ok {
		return errors.New("user already exists")
	}
	ur.users[user.ID] = user
	return nil
}

func (ur *FakeUserRepo) LinkEnterpriseIdentity(userID string, identity users.EnterpriseIdentity) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[userID]
	if !ok {
		return users.ErrNotFound
	}
	user.EnterpriseIdentities = append(user.EnterpriseIdentities, identity)
	return nil
}

func (ur *FakeUserRepo) UpdateLastSignIn(id string, at time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.LastSignInAt = at
	return nil
}

func (ur *FakeUserRepo) Count() (int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users), nil
}

func (ur *FakeUserRepo) find(match func(*users.User) bool) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, u := range ur.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}
