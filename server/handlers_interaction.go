package server

import (
	"net/http"

	"github.com/jrsteele09/go-signin-service/experience"
	"github.com/jrsteele09/go-signin-service/interaction"
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/internal/utils"
	"github.com/jrsteele09/go-signin-service/verification"
)

// InteractionEventHandler declares or changes the session's intent.
func (s *Server) InteractionEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Event experience.Event `json:"event"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.loadSession(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := session.SetEvent(body.Event); err != nil {
			writeError(w, r, err)
			return
		}
		if err := session.Save(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// InteractionProfileHandler merges collected profile fields into the session.
func (s *Server) InteractionProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch interaction.ProfilePatch
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.loadSession(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := session.SetProfile(patch); err != nil {
			writeError(w, r, err)
			return
		}
		if err := session.Save(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// IdentifyHandler binds a user to the session via a verification record.
func (s *Server) IdentifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			VerificationID string `json:"verification_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.loadSession(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := session.IdentifyUser(body.VerificationID); err != nil {
			writeError(w, r, err)
			return
		}
		if err := session.Save(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SubmitHandler completes the interaction and returns the redirect target.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.loadSession(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		redirectTo, err := session.Submit(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"redirect_to": redirectTo})
	}
}

// VerifyPasswordHandler checks an identifier/password pair and attaches the
// resulting verification record to the session.
func (s *Server) VerifyPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Identifier verification.Identifier `json:"identifier"`
			Password   string                  `json:"password"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		record, err := verification.VerifyPassword(s.deps.Users, body.Identifier, body.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.attachRecord(w, r, record)
	}
}

// VerifyCodeHandler issues a one-time code when none is supplied, and
// verifies a supplied code into a verification record.
func (s *Server) VerifyCodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Channel verification.Channel `json:"channel"`
			Target  string               `json:"target"`
			Code    string               `json:"code,omitempty"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		if body.Channel != verification.ChannelEmail && body.Channel != verification.ChannelPhone {
			writeError(w, r, apierrors.ErrInvalidRequest)
			return
		}

		if body.Code == "" {
			if err := s.codes.Send(body.Channel, body.Target); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		record, err := s.codes.Verify(body.Channel, body.Target, body.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.attachRecord(w, r, record)
	}
}

// VerifySocialHandler records a social identity assertion.
func (s *Server) VerifySocialHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Provider   string            `json:"provider"`
			ExternalID string            `json:"external_id"`
			Details    map[string]string `json:"details,omitempty"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		record, err := verification.NewSocialRecord(body.Provider, body.ExternalID, body.Details)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.attachRecord(w, r, record)
	}
}

// VerifyEnterpriseSSOHandler records an enterprise SSO identity assertion.
func (s *Server) VerifyEnterpriseSSOHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Issuer     string            `json:"issuer"`
			ExternalID string            `json:"external_id"`
			Details    map[string]string `json:"details,omitempty"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		record, err := verification.NewEnterpriseRecord(body.Issuer, body.ExternalID, body.Details)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.attachRecord(w, r, record)
	}
}

// VerifyTOTPHandler validates a TOTP passcode or backup code for the already
// identified user.
func (s *Server) VerifyTOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code       string `json:"code,omitempty"`
			BackupCode string `json:"backup_code,omitempty"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.loadSession(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if session.UserID() == "" {
			writeError(w, r, apierrors.ErrSessionNotFound)
			return
		}

		var record *verification.Record
		switch {
		case body.Code != "":
			record, err = verification.VerifyTOTP(s.mfa, session.UserID(), body.Code)
		case body.BackupCode != "":
			record, err = verification.VerifyBackupCode(s.mfa, session.UserID(), body.BackupCode)
		default:
			err = apierrors.ErrInvalidRequest
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		session.SetVerificationRecord(utils.Value(record))
		if err := session.Save(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"verification_id": record.ID})
	}
}

// attachRecord stores a freshly produced verification record on the session
// and returns its id to the client.
func (s *Server) attachRecord(w http.ResponseWriter, r *http.Request, record *verification.Record) {
	session, err := s.loadSession(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session.SetVerificationRecord(utils.Value(record))
	if err := session.Save(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"verification_id": record.ID})
}
