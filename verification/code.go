package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	codeLength      = 6
	codeTTL         = 10 * time.Minute
	maxCodeAttempts = 5
)

// Channel is the delivery channel for a one-time code.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// SentCode is one issued one-time code awaiting verification.
type SentCode struct {
	Code     string    `json:"code"`
	Target   string    `json:"target"`
	Channel  Channel   `json:"channel"`
	SentAt   time.Time `json:"sent_at"`
	Attempts int       `json:"attempts"`
}

// CodeRepo stores issued codes keyed by channel and target. A new code for
// the same target replaces the previous one.
type CodeRepo interface {
	Upsert(key string, code *SentCode) error
	Get(key string) (*SentCode, error)
	Delete(key string) error
}

// Sender delivers a code to its target. Mail and SMS transports are external
// collaborators; LogSender is the development stand-in.
type Sender interface {
	Send(channel Channel, target, code string) error
}

// LogSender writes codes to the log instead of delivering them.
type LogSender struct {
	Logger zerolog.Logger
}

func (ls LogSender) Send(channel Channel, target, code string) error {
	ls.Logger.Info().
		Str("channel", string(channel)).
		Str("target", target).
		Str("code", code).
		Msg("verification code issued")
	return nil
}

// CodeService issues and verifies one-time codes.
type CodeService struct {
	repo    CodeRepo
	sender  Sender
	nowTime func() time.Time
}

type CodeServiceOption func(*CodeService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CodeServiceOption {
	return func(cs *CodeService) {
		cs.nowTime = nowFunc
	}
}

func NewCodeService(repo CodeRepo, sender Sender, options ...CodeServiceOption) (*CodeService, error) {
	if repo == nil {
		return nil, errors.New("[NewCodeService] code repo is required")
	}
	if sender == nil {
		return nil, errors.New("[NewCodeService] sender is required")
	}
	cs := &CodeService{
		repo:    repo,
		sender:  sender,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(cs)
	}
	return cs, nil
}

// Send issues a fresh code to the target, replacing any outstanding one.
func (cs *CodeService) Send(channel Channel, target string) error {
	code, err := generateCode()
	if err != nil {
		return errors.Wrap(err, "[CodeService.Send] generateCode")
	}

	if err := cs.repo.Upsert(codeKey(channel, target), &SentCode{
		Code:    code,
		Target:  target,
		Channel: channel,
		SentAt:  cs.nowTime(),
	}); err != nil {
		return errors.Wrap(err, "[CodeService.Send] repo.Upsert")
	}

	if err := cs.sender.Send(channel, target, code); err != nil {
		return errors.Wrap(err, "[CodeService.Send] sender.Send")
	}
	return nil
}

// Verify matches a submitted code against the outstanding one for the
// target. Success consumes the code and returns a verified record carrying
// the address that was proven. Expired or exhausted codes behave like a
// mismatch.
func (cs *CodeService) Verify(channel Channel, target, code string) (*Record, error) {
	key := codeKey(channel, target)
	sent, err := cs.repo.Get(key)
	if err != nil {
		return nil, apierrors.ErrInvalidRequest
	}

	if cs.nowTime().Sub(sent.SentAt) > codeTTL {
		_ = cs.repo.Delete(key)
		return nil, apierrors.ErrInvalidRequest
	}

	if sent.Code != code {
		sent.Attempts++
		if sent.Attempts >= maxCodeAttempts {
			_ = cs.repo.Delete(key)
		} else {
			_ = cs.repo.Upsert(key, sent)
		}
		return nil, apierrors.ErrInvalidRequest
	}

	if err := cs.repo.Delete(key); err != nil {
		return nil, errors.Wrap(err, "[CodeService.Verify] repo.Delete")
	}

	var recordType Type
	if channel == ChannelEmail {
		recordType = TypeEmailCode
	} else {
		recordType = TypePhoneCode
	}

	record := newRecord(recordType)
	if channel == ChannelEmail {
		record.Email = target
	} else {
		record.Phone = target
	}
	return &record, nil
}

func codeKey(channel Channel, target string) string {
	return fmt.Sprintf("%s:%s", channel, target)
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
