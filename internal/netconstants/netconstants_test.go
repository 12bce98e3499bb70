package netconstants_test

import (
	"testing"

	"github.com/cirruslabs/vmpower/internal/netconstants"
	"github.com/stretchr/testify/require"
)

func TestAddressFromHostPort(t *testing.T) {
	require.Equal(t, "http://esxi.example.com:6120",
		netconstants.AddressFromHostPort("esxi.example.com", 6120, false))
	require.Equal(t, "https://[::1]:443",
		netconstants.AddressFromHostPort("::1", 443, true))
}
