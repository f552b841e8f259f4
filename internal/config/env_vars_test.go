package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-signin-service/internal/config"
)

func TestGetPort_PrefixesColon(t *testing.T) {
	t.Setenv("PORT", "9090")
	require.Equal(t, ":9090", config.EnvVars{}.GetPort())
}

func TestGetPort_KeepsExistingColon(t *testing.T) {
	t.Setenv("PORT", ":9090")
	require.Equal(t, ":9090", config.EnvVars{}.GetPort())
}

func TestGetPort_Default(t *testing.T) {
	t.Setenv("PORT", "")
	require.Equal(t, ":8080", config.EnvVars{}.GetPort())
}
