package endpoint_test

import (
	"crypto/x509"
	"testing"

	"github.com/cirruslabs/vmpower/internal/endpoint"
	"github.com/cirruslabs/vmpower/internal/netconstants"
	"github.com/stretchr/testify/require"
)

func TestDataDirCertificate(t *testing.T) {
	dataDir, err := endpoint.NewDataDir(t.TempDir())
	require.NoError(t, err)
	defer dataDir.Close()

	initialized, err := dataDir.Initialized()
	require.NoError(t, err)
	require.False(t, initialized)

	hasCertificate, err := dataDir.HasCertificate()
	require.NoError(t, err)
	require.False(t, hasCertificate)

	certificate, err := endpoint.GenerateSelfSignedCertificate()
	require.NoError(t, err)
	require.NoError(t, dataDir.SetCertificate(certificate))

	hasCertificate, err = dataDir.HasCertificate()
	require.NoError(t, err)
	require.True(t, hasCertificate)

	loadedCertificate, err := dataDir.Certificate()
	require.NoError(t, err)
	require.Equal(t, certificate.Certificate[0], loadedCertificate.Certificate[0])

	parsedCertificate, err := x509.ParseCertificate(loadedCertificate.Certificate[0])
	require.NoError(t, err)
	require.Contains(t, parsedCertificate.DNSNames, netconstants.DefaultEndpointServerName)
}
