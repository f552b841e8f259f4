package sessionstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps session blobs in process memory. Used by tests and
// single-instance development; production uses the Redis store.
type InMemoryStore struct {
	sessions   map[string]map[string]json.RawMessage
	signer     *TokenSigner
	redirectTo string
	lock       sync.RWMutex
}

func NewInMemoryStore(signer *TokenSigner, redirectTo string) *InMemoryStore {
	return &InMemoryStore{
		sessions:   make(map[string]map[string]json.RawMessage),
		signer:     signer,
		redirectTo: redirectTo,
	}
}

func (s *InMemoryStore) Load(_ context.Context, sessionID string) (map[string]json.RawMessage, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	// Copy so callers cannot mutate stored state behind the lock
	out := make(map[string]json.RawMessage, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

func (s *InMemoryStore) MergeAndSave(_ context.Context, sessionID string, partial map[string]json.RawMessage) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		stored = make(map[string]json.RawMessage)
		s.sessions[sessionID] = stored
	}
	for k, v := range partial {
		stored[k] = v
	}
	return nil
}

func (s *InMemoryStore) FinalizeLogin(_ context.Context, sessionID, accountID string) (string, error) {
	token, err := s.signer.Mint(accountID)
	if err != nil {
		return "", errors.Wrap(err, "[InMemoryStore.FinalizeLogin] signer.Mint")
	}

	raw, err := json.Marshal(AuthState{
		AccountID:    accountID,
		SubjectToken: token,
		FinalizedAt:  NowTimeFunc().Unix(),
	})
	if err != nil {
		return "", errors.Wrap(err, "[InMemoryStore.FinalizeLogin] marshal auth state")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		stored = make(map[string]json.RawMessage)
		s.sessions[sessionID] = stored
	}
	delete(stored, KeyInteraction)
	stored[KeyAuth] = raw
	return s.redirectTo, nil
}
