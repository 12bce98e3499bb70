package dev

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cirruslabs/vmpower/internal/endpoint"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/hashicorp/go-multierror"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	UserName     = "dev"
	UserPassword = "dev"
)

// VMs are added to the inventory of every development endpoint.
var VMs = []v1.VM{
	{Meta: v1.Meta{Name: "web-01"}, GuestID: "ubuntu64Guest", CPU: 2, Memory: 4096},
	{Meta: v1.Meta{Name: "web-02"}, GuestID: "ubuntu64Guest", CPU: 2, Memory: 4096},
	{Meta: v1.Meta{Name: "db-01"}, GuestID: "rhel9_64Guest", CPU: 8, Memory: 32768},
	{Meta: v1.Meta{Name: "build-01"}, GuestID: "darwin23_64Guest", CPU: 4, Memory: 8192,
		PowerState: v1.VMPowerStatePoweredOn},
}

var devDataDirPath string
var listenAddr string
var stepDelay time.Duration

func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "dev",
		Short: "Run an endpoint with a development user and a few VMs",
		RunE:  runDev,
	}

	command.PersistentFlags().StringVarP(&devDataDirPath, "data-dir", "d", "",
		"path to persist data between runs (defaults to a temporary directory removed on exit)")
	command.PersistentFlags().StringVarP(&listenAddr, "listen", "l", "127.0.0.1:6120",
		"address to listen on")
	command.PersistentFlags().DurationVar(&stepDelay, "step-delay", 750*time.Millisecond,
		"upper bound of the simulated delay between power operation task state changes")

	return command
}

func runDev(cmd *cobra.Command, args []string) (err error) {
	path := devDataDirPath

	if path == "" {
		path, err = os.MkdirTemp("", "vmpower-dev-")
		if err != nil {
			return err
		}
		defer func() {
			if removeErr := os.RemoveAll(path); removeErr != nil {
				err = multierror.Append(err, removeErr).ErrorOrNil()
			}
		}()
	} else if !filepath.IsAbs(path) {
		path, err = filepath.Abs(path)
		if err != nil {
			return err
		}
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	dataDir, err := endpoint.NewDataDir(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dataDir.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	devEndpoint, err := CreateDevEndpoint(dataDir,
		endpoint.WithListenAddr(listenAddr),
		endpoint.WithMaxStepDelay(stepDelay),
		endpoint.WithPrometheusMetrics(),
		endpoint.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	pterm.Info.WithWriter(cmd.OutOrStdout()).Printfln("Development endpoint is available at %s, "+
		"log in with user %s and password %s", pterm.Bold.Sprint(devEndpoint.Address()),
		pterm.Bold.Sprint(UserName), pterm.Bold.Sprint(UserPassword))

	return devEndpoint.Run(cmd.Context())
}

// CreateDevEndpoint creates an endpoint that has the development
// user and VMs, the options are applied after the defaults.
func CreateDevEndpoint(dataDir *endpoint.DataDir, opts ...endpoint.Option) (*endpoint.Endpoint, error) {
	devEndpoint, err := endpoint.New(append([]endpoint.Option{endpoint.WithDataDir(dataDir)}, opts...)...)
	if err != nil {
		return nil, err
	}

	if err := devEndpoint.EnsureUser(UserName, UserPassword); err != nil {
		return nil, fmt.Errorf("failed to create the development user: %w", err)
	}

	for _, vm := range VMs {
		if err := devEndpoint.EnsureVM(vm); err != nil {
			return nil, fmt.Errorf("failed to create the development VM %q: %w", vm.Name, err)
		}
	}

	return devEndpoint, nil
}
