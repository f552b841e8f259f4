package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-signin-service/users"
)

func TestPasswordPolicy_AcceptsStrongPassword(t *testing.T) {
	policy := users.DefaultPasswordPolicy()

	violations := policy.Check("Tr1cky&Secret", users.UserInfo{})
	require.Empty(t, violations)
}

func TestPasswordPolicy_ReportsAllViolations(t *testing.T) {
	policy := users.DefaultPasswordPolicy()

	violations := policy.Check("ab", users.UserInfo{})

	require.Contains(t, violations, users.ViolationTooShort)
	require.Contains(t, violations, users.ViolationNoUppercase)
	require.Contains(t, violations, users.ViolationNoDigit)
}

func TestPasswordPolicy_Blocklist(t *testing.T) {
	policy := users.DefaultPasswordPolicy()

	violations := policy.Check("MyPassword123", users.UserInfo{})
	require.Contains(t, violations, users.ViolationBlocklisted)
}

func TestPasswordPolicy_ForbidsUserInfo(t *testing.T) {
	policy := users.DefaultPasswordPolicy()

	info := users.UserInfo{Username: "janedoe", Email: "jane.doe@example.com"}

	violations := policy.Check("Janedoe4ever", info)
	require.Contains(t, violations, users.ViolationContainsUserInfo)

	// The local part of the email counts as user info too
	violations = policy.Check("Jane.doe4ever", info)
	require.Contains(t, violations, users.ViolationContainsUserInfo)
}

func TestPasswordPolicy_ShortUserInfoFragmentsIgnored(t *testing.T) {
	policy := users.DefaultPasswordPolicy()

	info := users.UserInfo{Username: "jd"}
	violations := policy.Check("Jd4ever&Strong", info)
	require.NotContains(t, violations, users.ViolationContainsUserInfo)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := users.HashPassword("Tr1cky&Secret")
	require.NoError(t, err)
	require.NotEqual(t, "Tr1cky&Secret", hash)

	require.True(t, users.CheckPasswordHash("Tr1cky&Secret", hash))
	require.False(t, users.CheckPasswordHash("wrong", hash))
}
