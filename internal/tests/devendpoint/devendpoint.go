package devendpoint

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cirruslabs/vmpower/internal/command/dev"
	"github.com/cirruslabs/vmpower/internal/endpoint"
	"github.com/cirruslabs/vmpower/pkg/client"
	"github.com/stretchr/testify/require"
)

func StartIntegrationTestEnvironment(t *testing.T) (*client.Client, *endpoint.Endpoint) {
	return StartIntegrationTestEnvironmentWithAdditionalOpts(t, nil)
}

// StartIntegrationTestEnvironmentWithAdditionalOpts runs a development endpoint
// until the end of the test and returns a client that is already logged in to it.
func StartIntegrationTestEnvironmentWithAdditionalOpts(
	t *testing.T,
	additionalOpts []endpoint.Option,
) (*client.Client, *endpoint.Endpoint) {
	t.Setenv("VMPOWER_HOME", t.TempDir())

	dataDir, err := endpoint.NewDataDir(t.TempDir())
	require.NoError(t, err)

	opts := []endpoint.Option{
		endpoint.WithListenAddr("127.0.0.1:0"),
		endpoint.WithMaxStepDelay(50 * time.Millisecond),
	}

	devEndpoint, err := dev.CreateDevEndpoint(dataDir, append(opts, additionalOpts...)...)
	require.NoError(t, err)

	devContext, cancelDevFunc := context.WithCancel(context.Background())
	devDone := make(chan struct{})

	go func() {
		defer close(devDone)

		err := devEndpoint.Run(devContext)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("dev endpoint failed: %v", err)
		}
	}()

	t.Cleanup(func() {
		cancelDevFunc()
		<-devDone

		_ = dataDir.Close()
	})

	devClient, err := client.New(client.WithAddress(devEndpoint.Address()))
	require.NoError(t, err)

	_, err = devClient.Login(t.Context(), dev.UserName, dev.UserPassword)
	require.NoError(t, err)

	return devClient, devEndpoint
}
