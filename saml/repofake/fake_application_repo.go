package repofake

import (
	"sync"

	"github.com/jrsteele09/go-signin-service/saml"
)

var _ saml.ApplicationRepo = (*FakeApplicationRepo)(nil)

// FakeApplicationRepo is an in-memory saml.ApplicationRepo.
type FakeApplicationRepo struct {
	applications map[string]*saml.Application
	lock         sync.RWMutex
}

func NewFakeApplicationRepo() *FakeApplicationRepo {
	return &FakeApplicationRepo{
		applications: make(map[string]*saml.Application),
	}
}

func (ar *FakeApplicationRepo) Upsert(application *saml.Application) {
	ar.lock.Lock()
	defer ar.lock.Unlock()
	ar.applications[application.ID] = application
}

func (ar *FakeApplicationRepo) Get(id string) (*saml.Application, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()
	application, ok := ar.applications[id]
	if !ok {
		return nil, saml.ErrApplicationNotFound
	}
	copied := *application
	return &copied, nil
}
