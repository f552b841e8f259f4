package repofake

import (
	"sync"

	"github.com/jrsteele09/go-signin-service/verification"
	"github.com/pkg/errors"
)

var _ verification.CodeRepo = (*FakeCodeRepo)(nil)

type FakeCodeRepo struct {
	codes map[string]*verification.SentCode
	lock  sync.RWMutex
}

func NewFakeCodeRepo() *FakeCodeRepo {
	return &FakeCodeRepo{
		codes: make(map[string]*verification.SentCode),
	}
}

func (cr *FakeCodeRepo) Upsert(key string, code *verification.SentCode) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	cr.codes[key] = code
	return nil
}

func (cr *FakeCodeRepo) Get(key string) (*verification.SentCode, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	code, ok := cr.codes[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return code, nil
}

func (cr *FakeCodeRepo) Delete(key string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	delete(cr.codes, key)
	return nil
}
