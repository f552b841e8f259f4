package repofake

import (
	"sync"

	"github.com/jrsteele09/go-signin-service/verification"
)

var _ verification.MFASecrets = (*FakeMFASecrets)(nil)

// FakeMFASecrets is an in-memory verification.MFASecrets. Backup codes are
// single-use.
type FakeMFASecrets struct {
	secrets     map[string]string
	backupCodes map[string]map[string]struct{}
	lock        sync.Mutex
}

func NewFakeMFASecrets() *FakeMFASecrets {
	return &FakeMFASecrets{
		secrets:     make(map[string]string),
		backupCodes: make(map[string]map[string]struct{}),
	}
}

func (ms *FakeMFASecrets) Enroll(userID, secret string, backupCodes ...string) {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	ms.secrets[userID] = secret
	codes := make(map[string]struct{}, len(backupCodes))
	for _, code := range backupCodes {
		codes[code] = struct{}{}
	}
	ms.backupCodes[userID] = codes
}

func (ms *FakeMFASecrets) TOTPSecret(userID string) (string, error) {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	return ms.secrets[userID], nil
}

func (ms *FakeMFASecrets) ConsumeBackupCode(userID, code string) (bool, error) {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	codes, ok := ms.backupCodes[userID]
	if !ok {
		return false, nil
	}
	if _, ok := codes[code]; !ok {
		return false, nil
	}
	delete(codes, code)
	return true, nil
}
