package saml

import (
	"sync"
	"time"
)

var _ SessionRepo = (*InMemorySessionRepo)(nil)

// InMemorySessionRepo keeps correlation sessions in process memory. Expired
// rows are dropped lazily on read.
type InMemorySessionRepo struct {
	sessions map[string]*Session
	nowTime  func() time.Time
	lock     sync.RWMutex
}

func NewInMemorySessionRepo() *InMemorySessionRepo {
	return &InMemorySessionRepo{
		sessions: make(map[string]*Session),
		nowTime:  time.Now,
	}
}

// WithNow overrides the clock (primarily for testing).
func (sr *InMemorySessionRepo) WithNow(nowFunc func() time.Time) *InMemorySessionRepo {
	sr.nowTime = nowFunc
	return sr
}

func (sr *InMemorySessionRepo) Insert(session *Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.sessions[session.ID] = session
	return nil
}

func (sr *InMemorySessionRepo) Get(id string) (*Session, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session, ok := sr.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !sr.nowTime().Before(session.ExpiresAt) {
		delete(sr.sessions, id)
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (sr *InMemorySessionRepo) Delete(id string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	delete(sr.sessions, id)
	return nil
}
