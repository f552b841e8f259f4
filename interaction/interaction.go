package interaction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-signin-service/experience"
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/organizations"
	"github.com/jrsteele09/go-signin-service/provision"
	"github.com/jrsteele09/go-signin-service/sessionstore"
	"github.com/jrsteele09/go-signin-service/users"
	"github.com/jrsteele09/go-signin-service/verification"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Deps holds all collaborator dependencies for a Session. They are scoped to
// the tenant handling the request and are never serialized with the session.
type Deps struct {
	Users         users.Repo              // Repository for user data
	Organizations organizations.Repo      // Repository for organization membership
	Experience    *experience.Validator   // Sign-in experience policy gate
	Provisioner   *provision.Service      // User-creation side effects
	Store         sessionstore.Store      // Opaque per-request session store
	Logger        zerolog.Logger
}

func (d Deps) validate() error {
	if d.Users == nil {
		return errors.New("[interaction.Deps] Users repo is required")
	}
	if d.Organizations == nil {
		return errors.New("[interaction.Deps] Organizations repo is required")
	}
	if d.Experience == nil {
		return errors.New("[interaction.Deps] Experience validator is required")
	}
	if d.Provisioner == nil {
		return errors.New("[interaction.Deps] Provisioner is required")
	}
	if d.Store == nil {
		return errors.New("[interaction.Deps] Store is required")
	}
	return nil
}

// Session orchestrates one authentication attempt across several HTTP round
// trips: the client declares an event, attaches verification records,
// identifies or registers a user, and submits. At most one user can ever be
// identified in a session.
type Session struct {
	id      string
	event   experience.Event
	userID  string
	profile Profile
	records map[verification.Type]verification.Record

	deps    Deps
	nowTime func() time.Time
}

// SessionOption defines a function type to modify the Session instance.
type SessionOption func(*Session)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionOption {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

// New creates a fresh session bound to the given session-store id.
func New(id string, deps Deps, options ...SessionOption) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:      id,
		records: make(map[verification.Type]verification.Record),
		deps:    deps,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Load reconstructs the session from the store blob for this id. A session
// id with no interaction state yields a fresh session.
func Load(ctx context.Context, id string, deps Deps, options ...SessionOption) (*Session, error) {
	s, err := New(id, deps, options...)
	if err != nil {
		return nil, err
	}

	stored, err := deps.Store.Load(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "[interaction.Load] store.Load")
	}

	raw, ok := stored[sessionstore.KeyInteraction]
	if !ok {
		return s, nil
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "[interaction.Load] unmarshal payload")
	}
	s.applyPayload(payload)
	return s, nil
}

// FromPayload rebuilds a session from a previously serialized payload.
func FromPayload(id string, payload Payload, deps Deps, options ...SessionOption) (*Session, error) {
	s, err := New(id, deps, options...)
	if err != nil {
		return nil, err
	}
	s.applyPayload(payload)
	return s, nil
}

// SetEvent declares or changes the session's intent. ForgotPassword is
// isolated: a session can neither leave nor enter it once another event is
// in place.
func (s *Session) SetEvent(event experience.Event) error {
	if err := s.deps.Experience.GuardEvent(event); err != nil {
		return err
	}
	if s.event != "" {
		wasForgot := s.event == experience.EventForgotPassword
		isForgot := event == experience.EventForgotPassword
		if wasForgot != isForgot {
			return apierrors.ErrIncompatibleEvent
		}
	}
	s.event = event
	return nil
}

// Event returns the declared interaction event, empty until set.
func (s *Session) Event() experience.Event {
	return s.event
}

// UserID returns the identified user id, empty until identification.
func (s *Session) UserID() string {
	return s.userID
}

// SetVerificationRecord upserts a record by its type. The record was
// validated when it was produced; a newer verification of the same type
// replaces the previous one.
func (s *Session) SetVerificationRecord(record verification.Record) {
	s.records[record.Type] = record
}

// VerificationRecord finds a stored record by id.
func (s *Session) VerificationRecord(id string) (verification.Record, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return verification.Record{}, false
}

// ProfilePatch carries profile fields collected from the client ahead of
// registration.
type ProfilePatch struct {
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	PrimaryEmail string `json:"primary_email,omitempty"`
	PrimaryPhone string `json:"primary_phone,omitempty"`
}

// SetProfile merges collected profile fields into the session. Passwords are
// checked against the tenant policy and stored only as a hash.
func (s *Session) SetProfile(patch ProfilePatch) error {
	if patch.Password != "" {
		policy := s.deps.Experience.Experience().PasswordPolicy
		info := users.UserInfo{
			Username: firstNonEmpty(patch.Username, s.profile.Username),
			Email:    firstNonEmpty(patch.PrimaryEmail, s.profile.PrimaryEmail),
			Phone:    firstNonEmpty(patch.PrimaryPhone, s.profile.PrimaryPhone),
		}
		if violations := policy.Check(patch.Password, info); len(violations) > 0 {
			return apierrors.PasswordRejected(violationStrings(violations))
		}
		hash, err := users.HashPassword(patch.Password)
		if err != nil {
			return errors.Wrap(err, "[Session.SetProfile] HashPassword")
		}
		s.profile.PasswordHash = hash
	}
	if patch.Username != "" {
		s.profile.Username = patch.Username
	}
	if patch.PrimaryEmail != "" {
		s.profile.PrimaryEmail = patch.PrimaryEmail
	}
	if patch.PrimaryPhone != "" {
		s.profile.PrimaryPhone = patch.PrimaryPhone
	}
	return nil
}

// IdentifyUser binds a user to the session using the named verification
// record: a new user under the Register event, an existing one otherwise.
func (s *Session) IdentifyUser(verificationID string) error {
	if s.event == "" {
		return apierrors.ErrSessionNotFound
	}

	record, ok := s.VerificationRecord(verificationID)
	if !ok {
		return apierrors.ErrVerificationNotFound
	}

	if err := s.deps.Experience.GuardIdentificationMethod(s.event, record.Type); err != nil {
		return err
	}

	if s.event == experience.EventRegister {
		return s.register(record)
	}
	return s.identifyExisting(record)
}

func (s *Session) identifyExisting(record verification.Record) error {
	user, err := record.Identify(s.deps.Users)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return apierrors.ErrUserNotFound
		}
		return err
	}

	if user.Suspended {
		return apierrors.ErrAccountSuspended
	}

	// Re-identifying the same user is a no-op; a different user is a conflict.
	if s.userID != "" && s.userID != user.ID {
		return apierrors.ErrIdentityConflict
	}
	s.userID = user.ID
	return nil
}

// Save merges the session's serialized state into the underlying store. Only
// the interaction key is written; unrelated keys in the same session blob
// are left untouched.
func (s *Session) Save(ctx context.Context) error {
	raw, err := json.Marshal(s.Payload())
	if err != nil {
		return errors.Wrap(err, "[Session.Save] marshal payload")
	}

	if err := s.deps.Store.MergeAndSave(ctx, s.id, map[string]json.RawMessage{
		sessionstore.KeyInteraction: raw,
	}); err != nil {
		return errors.Wrap(err, "[Session.Save] store.MergeAndSave")
	}

	s.deps.Logger.Debug().
		Str("session_id", s.id).
		RawJSON("interaction", raw).
		Msg("interaction state saved")
	return nil
}

// Submit completes the interaction: it stamps the user's last sign-in and
// asks the store to finalize a login result for the identified account. The
// returned target is where the caller should redirect the client.
func (s *Session) Submit(ctx context.Context) (string, error) {
	if s.userID == "" {
		return "", apierrors.ErrSessionNotFound
	}

	if err := s.deps.Users.UpdateLastSignIn(s.userID, s.nowTime()); err != nil {
		return "", errors.Wrap(err, "[Session.Submit] UpdateLastSignIn")
	}

	redirectTo, err := s.deps.Store.FinalizeLogin(ctx, s.id, s.userID)
	if err != nil {
		return "", errors.Wrap(err, "[Session.Submit] store.FinalizeLogin")
	}
	return redirectTo, nil
}

func violationStrings(violations []users.Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = string(v)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
