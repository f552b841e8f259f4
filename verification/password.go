package verification

import (
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/users"
	"github.com/pkg/errors"
)

// Identifier is the value a user supplies to say who they are when
// presenting a password. Exactly one field should be set.
type Identifier struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// VerifyPassword checks the supplied password against the stored hash of the
// user the identifier resolves to. On success it returns a verified password
// record bound to that user id; a wrong password and an unknown identifier
// are indistinguishable to the caller.
func VerifyPassword(repo users.Repo, id Identifier, password string) (*Record, error) {
	user, err := findByIdentifier(repo, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, apierrors.ErrInvalidRequest
		}
		return nil, errors.Wrap(err, "[VerifyPassword] findByIdentifier")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apierrors.ErrInvalidRequest
	}

	record := newRecord(TypePassword)
	record.UserID = user.ID
	return &record, nil
}

func findByIdentifier(repo users.Repo, id Identifier) (*users.User, error) {
	switch {
	case id.Username != "":
		return repo.FindByUsername(id.Username)
	case id.Email != "":
		return repo.FindByEmail(id.Email)
	case id.Phone != "":
		return repo.FindByPhone(id.Phone)
	}
	return nil, users.ErrNotFound
}
