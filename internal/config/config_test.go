package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cirruslabs/vmpower/internal/config"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.yml")

	require.NoError(t, os.WriteFile(path, []byte(`users:
  - name: root
    password: secret
vms:
  - name: web-01
    guestId: ubuntu64Guest
    cpu: 2
    memory: 4096
  - name: db-01
    powerState: poweredOn
`), 0600))

	inventory, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, []config.User{{Name: "root", Password: "secret"}}, inventory.Users)
	require.Len(t, inventory.VMs, 2)

	vm := inventory.VMs[0].Resource()
	require.Equal(t, "web-01", vm.Name)
	require.Equal(t, "ubuntu64Guest", vm.GuestID)
	require.EqualValues(t, 2, vm.CPU)
	require.Equal(t, v1.VMPowerStatePoweredOn, inventory.VMs[1].PowerState)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	require.ErrorIs(t, err, config.ErrConfigReadFailed)
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		Name string
		YAML string
	}{
		{"garbage", "users: {"},
		{"user-without-password", "users:\n  - name: root\n"},
		{"vm-without-name", "vms:\n  - cpu: 2\n"},
		{"vm-with-slash-in-name", "vms:\n  - name: web/01\n"},
		{"duplicate-vm", "vms:\n  - name: a\n  - name: a\n"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			_, err := config.Parse([]byte(testCase.YAML))
			require.ErrorIs(t, err, config.ErrConfigInvalid)
		})
	}
}

func TestParseReportsAllProblems(t *testing.T) {
	_, err := config.Parse([]byte(`users:
  - name: root
vms:
  - name: web/01
  - name: db-01
  - name: db-01
`))
	require.ErrorIs(t, err, config.ErrConfigInvalid)

	var multiErr *multierror.Error
	require.ErrorAs(t, err, &multiErr)
	require.Len(t, multiErr.Errors, 3)
	require.Contains(t, err.Error(), "duplicate VM \"db-01\"")
}
