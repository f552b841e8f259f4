package users

import (
	"strings"
	"unicode"
)

// Violation identifies a password policy rule that a candidate password broke.
type Violation string

const (
	ViolationTooShort        Violation = "too_short"
	ViolationTooLong         Violation = "too_long"
	ViolationNoUppercase     Violation = "missing_uppercase"
	ViolationNoLowercase     Violation = "missing_lowercase"
	ViolationNoDigit         Violation = "missing_digit"
	ViolationNoSymbol        Violation = "missing_symbol"
	ViolationBlocklisted     Violation = "blocklisted"
	ViolationContainsUserInfo Violation = "contains_user_info"
)

// UserInfo carries the identifying values a password must not contain when
// ForbidUserInfo is enabled.
type UserInfo struct {
	Username string
	Email    string
	Phone    string
}

// PasswordPolicy checks candidate passwords against tenant rules. All rules
// are evaluated; Check returns every violation rather than the first.
type PasswordPolicy struct {
	MinLength      int      `json:"min_length"`
	MaxLength      int      `json:"max_length"`
	RequireUpper   bool     `json:"require_upper"`
	RequireLower   bool     `json:"require_lower"`
	RequireDigit   bool     `json:"require_digit"`
	RequireSymbol  bool     `json:"require_symbol"`
	Blocklist      []string `json:"blocklist,omitempty"`
	ForbidUserInfo bool     `json:"forbid_user_info"`
}

// DefaultPasswordPolicy mirrors the rules applied to new tenants.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		MaxLength:      256,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		Blocklist:      []string{"password", "12345678", "qwerty"},
		ForbidUserInfo: true,
	}
}

// Check runs every policy rule and returns the violated ones. An empty result
// means the password is acceptable.
func (p PasswordPolicy) Check(password string, info UserInfo) []Violation {
	var violations []Violation

	if len(password) < p.MinLength {
		violations = append(violations, ViolationTooShort)
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		violations = append(violations, ViolationTooLong)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if p.RequireUpper && !hasUpper {
		violations = append(violations, ViolationNoUppercase)
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, ViolationNoLowercase)
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, ViolationNoDigit)
	}
	if p.RequireSymbol && !hasSymbol {
		violations = append(violations, ViolationNoSymbol)
	}

	lowered := strings.ToLower(password)
	for _, blocked := range p.Blocklist {
		if strings.Contains(lowered, strings.ToLower(blocked)) {
			violations = append(violations, ViolationBlocklisted)
			break
		}
	}

	if p.ForbidUserInfo && containsUserInfo(lowered, info) {
		violations = append(violations, ViolationContainsUserInfo)
	}

	return violations
}

func containsUserInfo(lowered string, info UserInfo) bool {
	candidates := []string{info.Username, info.Phone}
	if at := strings.IndexByte(info.Email, '@'); at > 0 {
		candidates = append(candidates, info.Email[:at])
	} else if info.Email != "" {
		candidates = append(candidates, info.Email)
	}
	for _, c := range candidates {
		// Very short fragments match too easily to be meaningful
		if len(c) < 4 {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
