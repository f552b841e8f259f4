package verification_test

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/users"
	userrepofake "github.com/jrsteele09/go-signin-service/users/repofake"
	"github.com/jrsteele09/go-signin-service/verification"
	"github.com/jrsteele09/go-signin-service/verification/repofake"
)

const (
	testUserID       = "user-1"
	testUserEmail    = "jane.doe@example.com"
	testUserPassword = "Tr1cky&Secret"
	testCodeTarget   = "code.target@example.com"
)

func TestType_CanIdentifyUser(t *testing.T) {
	require.True(t, verification.TypePassword.CanIdentifyUser())
	require.True(t, verification.TypeEmailCode.CanIdentifyUser())
	require.True(t, verification.TypePhoneCode.CanIdentifyUser())
	require.True(t, verification.TypeSocial.CanIdentifyUser())
	require.True(t, verification.TypeEnterpriseSSO.CanIdentifyUser())
	require.False(t, verification.TypeTOTP.CanIdentifyUser())
	require.False(t, verification.TypeBackupCode.CanIdentifyUser())
}

func setupUserRepo(t *testing.T) *userrepofake.FakeUserRepo {
	t.Helper()

	passwordHash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	repo := userrepofake.NewFakeUserRepo()
	require.NoError(t, repo.Insert(&users.User{
		ID:           testUserID,
		PrimaryEmail: testUserEmail,
		PasswordHash: passwordHash,
	}))
	return repo
}

func TestVerifyPassword_Success(t *testing.T) {
	repo := setupUserRepo(t)

	record, err := verification.VerifyPassword(repo, verification.Identifier{Email: testUserEmail}, testUserPassword)

	require.NoError(t, err)
	require.Equal(t, verification.TypePassword, record.Type)
	require.True(t, record.Verified)
	require.Equal(t, testUserID, record.UserID)
}

func TestVerifyPassword_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	repo := setupUserRepo(t)

	_, wrongErr := verification.VerifyPassword(repo, verification.Identifier{Email: testUserEmail}, "not-the-password")
	_, unknownErr := verification.VerifyPassword(repo, verification.Identifier{Email: "nobody@example.com"}, testUserPassword)

	require.ErrorIs(t, wrongErr, apierrors.ErrInvalidRequest)
	require.ErrorIs(t, unknownErr, apierrors.ErrInvalidRequest)
	require.Equal(t, wrongErr.Error(), unknownErr.Error())
}

// codeFixture wires a code service against the fake repo so tests can read
// back the issued code.
type codeFixture struct {
	repo    *repofake.FakeCodeRepo
	service *verification.CodeService
	now     time.Time
}

func setupCodeFixture(t *testing.T) *codeFixture {
	t.Helper()

	f := &codeFixture{
		repo: repofake.NewFakeCodeRepo(),
		now:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	service, err := verification.NewCodeService(f.repo, verification.LogSender{Logger: zerolog.Nop()},
		verification.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *codeFixture) sentCode(t *testing.T) string {
	t.Helper()
	sent, err := f.repo.Get("email:" + testCodeTarget)
	require.NoError(t, err)
	return sent.Code
}

func TestCodeService_SendAndVerify(t *testing.T) {
	f := setupCodeFixture(t)

	require.NoError(t, f.service.Send(verification.ChannelEmail, testCodeTarget))
	code := f.sentCode(t)

	record, err := f.service.Verify(verification.ChannelEmail, testCodeTarget, code)
	require.NoError(t, err)
	require.Equal(t, verification.TypeEmailCode, record.Type)
	require.Equal(t, testCodeTarget, record.Email)

	// Codes are single use
	_, err = f.service.Verify(verification.ChannelEmail, testCodeTarget, code)
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestCodeService_ExpiredCode(t *testing.T) {
	f := setupCodeFixture(t)

	require.NoError(t, f.service.Send(verification.ChannelEmail, testCodeTarget))
	code := f.sentCode(t)

	f.now = f.now.Add(11 * time.Minute)

	_, err := f.service.Verify(verification.ChannelEmail, testCodeTarget, code)
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestCodeService_AttemptLimit(t *testing.T) {
	f := setupCodeFixture(t)

	require.NoError(t, f.service.Send(verification.ChannelEmail, testCodeTarget))
	code := f.sentCode(t)

	for i := 0; i < 5; i++ {
		_, err := f.service.Verify(verification.ChannelEmail, testCodeTarget, "000000")
		require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
	}

	// The correct code no longer works once attempts are exhausted
	_, err := f.service.Verify(verification.ChannelEmail, testCodeTarget, code)
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestNewSocialRecord_RequiresIdentity(t *testing.T) {
	_, err := verification.NewSocialRecord("", "ext-1", nil)
	require.Error(t, err)

	_, err = verification.NewSocialRecord("github", "", nil)
	require.Error(t, err)

	record, err := verification.NewSocialRecord("github", "ext-1", map[string]string{"email": testUserEmail})
	require.NoError(t, err)
	require.Equal(t, verification.TypeSocial, record.Type)
	require.Equal(t, testUserEmail, record.Social.Details["email"])
}

func TestRecord_IdentifyBySocial(t *testing.T) {
	repo := setupUserRepo(t)
	require.NoError(t, repo.Insert(&users.User{
		ID: "user-2",
		SocialIdentities: []users.SocialIdentity{
			{Provider: "github", ExternalID: "gh-9"},
		},
	}))

	record, err := verification.NewSocialRecord("github", "gh-9", nil)
	require.NoError(t, err)

	user, err := record.Identify(repo)
	require.NoError(t, err)
	require.Equal(t, "user-2", user.ID)
}

func TestRecord_MFARecordsCannotIdentify(t *testing.T) {
	repo := setupUserRepo(t)
	secrets := repofake.NewFakeMFASecrets()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "signin", AccountName: testUserEmail})
	require.NoError(t, err)
	secrets.Enroll(testUserID, key.Secret())

	passcode, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	record, err := verification.VerifyTOTP(secrets, testUserID, passcode)
	require.NoError(t, err)

	_, err = record.Identify(repo)
	require.ErrorIs(t, err, apierrors.ErrInvalidVerificationMethod)
}

func TestVerifyTOTP_WrongPasscode(t *testing.T) {
	secrets := repofake.NewFakeMFASecrets()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "signin", AccountName: testUserEmail})
	require.NoError(t, err)
	secrets.Enroll(testUserID, key.Secret())

	_, err = verification.VerifyTOTP(secrets, testUserID, "000000")
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestVerifyBackupCode_SingleUse(t *testing.T) {
	secrets := repofake.NewFakeMFASecrets()
	secrets.Enroll(testUserID, "unused-secret", "rescue-1")

	record, err := verification.VerifyBackupCode(secrets, testUserID, "rescue-1")
	require.NoError(t, err)
	require.Equal(t, verification.TypeBackupCode, record.Type)

	_, err = verification.VerifyBackupCode(secrets, testUserID, "rescue-1")
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}
