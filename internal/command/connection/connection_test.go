package connection_test

import (
	"testing"

	"github.com/cirruslabs/vmpower/internal/command/connection"
	"github.com/cirruslabs/vmpower/internal/exitcode"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		Name     string
		Args     []string
		Expected string
	}{
		{"no host", []string{"--port", "6120", "--user", "root", "--password", "secret"}, "--host is required"},
		{"no port", []string{"--host", "esxi", "--user", "root", "--password", "secret"}, "--port is required"},
		{"no user", []string{"--host", "esxi", "--port", "6120", "--password", "secret"}, "--user is required"},
		{"no password", []string{"--host", "esxi", "--port", "6120", "--user", "root"}, "--password is required"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			var flags connection.Flags

			command := &cobra.Command{Use: "test"}
			flags.Register(command)
			require.NoError(t, command.PersistentFlags().Parse(testCase.Args))

			err := flags.Validate()
			require.ErrorIs(t, err, exitcode.ErrBadInput)
			require.ErrorContains(t, err, testCase.Expected)
		})
	}
}

func TestValidateComplete(t *testing.T) {
	var flags connection.Flags

	command := &cobra.Command{Use: "test"}
	flags.Register(command)
	require.NoError(t, command.PersistentFlags().Parse([]string{"-s", "esxi", "-o", "443",
		"-u", "root", "-p", "secret", "--https"}))

	require.NoError(t, flags.Validate())
	require.Equal(t, "https://esxi:443", flags.Address())
}
