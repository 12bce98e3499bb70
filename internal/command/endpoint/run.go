package endpoint

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cirruslabs/vmpower/internal/config"
	"github.com/cirruslabs/vmpower/internal/endpoint"
	"github.com/cirruslabs/vmpower/internal/netconstants"
	"github.com/cirruslabs/vmpower/internal/opentelemetry"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var ErrRunFailed = errors.New("failed to run endpoint")

var listenAddr string
var configPath string
var logFilePath string
var stepDelay time.Duration
var noMetrics bool
var debug bool

func newRunCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "run",
		Short: "Run the endpoint",
		RunE:  runEndpoint,
	}

	command.PersistentFlags().StringVarP(&listenAddr, "listen", "l", fmt.Sprintf(":%d", netconstants.DefaultEndpointPort),
		"address to listen on")
	command.PersistentFlags().StringVar(&configPath, "config", "",
		"optional path to a YAML file with users and VMs to add on startup")
	command.PersistentFlags().StringVar(&logFilePath, "log-file", "",
		"optional path to a file where logs (up to 100 Mb) will be written.")
	command.PersistentFlags().DurationVar(&stepDelay, "step-delay", 750*time.Millisecond,
		"upper bound of the simulated delay between power operation task state changes")
	command.PersistentFlags().BoolVar(&noMetrics, "no-metrics", false,
		"do not expose Prometheus metrics on /metrics")
	command.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	return command
}

func runEndpoint(cmd *cobra.Command, args []string) (err error) {
	// Initialize the logger
	logger, err := createLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Export the metrics via OTLP when requested through the environment
	if otlpRequested() {
		shutdownOpenTelemetry, err := opentelemetry.Configure(cmd.Context())
		if err != nil {
			return fmt.Errorf("%w: failed to configure OpenTelemetry: %w", ErrRunFailed, err)
		}
		defer func() {
			if shutdownErr := shutdownOpenTelemetry(cmd.Context()); shutdownErr != nil {
				logger.Sugar().Warnf("failed to shutdown OpenTelemetry: %v", shutdownErr)
			}
		}()
	}

	var inventory *config.Inventory

	if configPath != "" {
		inventory, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	// Instantiate a data directory and ensure it's initialized
	path, err := resolveDataDirPath()
	if err != nil {
		return err
	}

	dataDir, err := endpoint.NewDataDir(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dataDir.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	initialized, err := dataDir.Initialized()
	if err != nil {
		return err
	}

	if !initialized && (inventory == nil || len(inventory.Users) == 0) {
		return fmt.Errorf("%w: data directory is not initialized, please run \"vmpower endpoint init\" "+
			"first or specify the users with \"--config\"", ErrRunFailed)
	}

	endpointOpts := []endpoint.Option{
		endpoint.WithDataDir(dataDir),
		endpoint.WithListenAddr(listenAddr),
		endpoint.WithMaxStepDelay(stepDelay),
		endpoint.WithLogger(logger),
	}

	if !noMetrics {
		endpointOpts = append(endpointOpts, endpoint.WithPrometheusMetrics())
	}

	hasCertificate, err := dataDir.HasCertificate()
	if err != nil {
		return err
	}

	if hasCertificate {
		endpointCert, err := dataDir.Certificate()
		if err != nil {
			return err
		}

		endpointOpts = append(endpointOpts, endpoint.WithTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			Certificates: []tls.Certificate{
				endpointCert,
			},
		}))
	}

	endpointInstance, err := endpoint.New(endpointOpts...)
	if err != nil {
		return err
	}

	if inventory != nil {
		if err := seed(endpointInstance, inventory); err != nil {
			return err
		}
	}

	logger.Sugar().Infof("serving on %s", endpointInstance.Address())

	return endpointInstance.Run(cmd.Context())
}

func seed(endpointInstance *endpoint.Endpoint, inventory *config.Inventory) error {
	for _, user := range inventory.Users {
		if err := endpointInstance.EnsureUser(user.Name, user.Password); err != nil {
			return err
		}
	}

	for _, vm := range inventory.VMs {
		if err := endpointInstance.EnsureVM(vm.Resource()); err != nil {
			return err
		}
	}

	return nil
}

func otlpRequested() bool {
	for _, name := range []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"} {
		if _, ok := os.LookupEnv(name); ok {
			return true
		}
	}

	return false
}
