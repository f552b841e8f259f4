package verification

import (
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/pquerna/otp/totp"
)

// MFASecrets resolves a user's enrolled MFA material. Enrollment itself is
// handled by the account management surface, not the interaction core.
type MFASecrets interface {
	TOTPSecret(userID string) (string, error)
	ConsumeBackupCode(userID, code string) (bool, error)
}

// VerifyTOTP validates a time-based one-time password against the user's
// enrolled secret. The resulting record proves possession but can never
// identify a user on its own.
func VerifyTOTP(secrets MFASecrets, userID, passcode string) (*Record, error) {
	secret, err := secrets.TOTPSecret(userID)
	if err != nil || secret == "" {
		return nil, apierrors.ErrInvalidRequest
	}
	if !totp.Validate(passcode, secret) {
		return nil, apierrors.ErrInvalidRequest
	}
	record := newRecord(TypeTOTP)
	record.UserID = userID
	return &record, nil
}

// VerifyBackupCode consumes one of the user's single-use backup codes.
func VerifyBackupCode(secrets MFASecrets, userID, code string) (*Record, error) {
	ok, err := secrets.ConsumeBackupCode(userID, code)
	if err != nil || !ok {
		return nil, apierrors.ErrInvalidRequest
	}
	record := newRecord(TypeBackupCode)
	record.UserID = userID
	return &record, nil
}
