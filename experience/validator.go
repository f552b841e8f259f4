package experience

import (
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/verification"
)

// Validator gates interaction operations on the tenant's sign-in experience.
type Validator struct {
	experience SignInExperience
}

func NewValidator(experience SignInExperience) *Validator {
	return &Validator{experience: experience}
}

func (v *Validator) Experience() SignInExperience {
	return v.experience
}

// GuardEvent rejects events the tenant has disabled.
func (v *Validator) GuardEvent(event Event) error {
	for _, enabled := range v.experience.EnabledEvents {
		if enabled == event {
			return nil
		}
	}
	return apierrors.ErrPolicyViolation
}

// GuardIdentificationMethod rejects verification types not allowed to
// identify a user for the given event.
func (v *Validator) GuardIdentificationMethod(event Event, t verification.Type) error {
	var allowed []verification.Type
	switch event {
	case EventSignIn:
		allowed = v.experience.SignInMethods
	case EventRegister:
		allowed = v.experience.SignUpMethods
	case EventForgotPassword:
		allowed = v.experience.ForgotPasswordMethods
	default:
		return apierrors.ErrPolicyViolation
	}

	for _, m := range allowed {
		if m == t {
			return nil
		}
	}
	return apierrors.ErrPolicyViolation
}
