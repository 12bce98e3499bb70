package connection

import (
	"context"
	"fmt"

	"github.com/cirruslabs/vmpower/internal/exitcode"
	"github.com/cirruslabs/vmpower/internal/netconstants"
	"github.com/cirruslabs/vmpower/pkg/client"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Flags describe how to reach and authenticate to the management endpoint.
type Flags struct {
	Host     string
	Port     uint16
	User     string
	Password string
	HTTPS    bool
	Insecure bool
}

func (flags *Flags) Register(command *cobra.Command) {
	command.PersistentFlags().StringVarP(&flags.Host, "host", "s", "",
		"remote host to connect to")
	command.PersistentFlags().Uint16VarP(&flags.Port, "port", "o", 0,
		fmt.Sprintf("port to connect on (the endpoint listens on %d by default)",
			netconstants.DefaultEndpointPort))
	command.PersistentFlags().StringVarP(&flags.User, "user", "u", "",
		"user name to use when connecting to host")
	command.PersistentFlags().StringVarP(&flags.Password, "password", "p", "",
		"password to use when connecting to host")
	command.PersistentFlags().BoolVar(&flags.HTTPS, "https", false,
		"connect to the host over HTTPS")
	command.PersistentFlags().BoolVar(&flags.Insecure, "insecure", false,
		"do not verify the host's certificate (implies --https)")
}

func (flags *Flags) Validate() error {
	if flags.Host == "" {
		return errors.Wrap(exitcode.ErrBadInput, "--host is required")
	}

	// Zero is both the flag's default and a port nothing can be reached on
	if flags.Port == 0 {
		return errors.Wrap(exitcode.ErrBadInput, "--port is required")
	}

	if flags.User == "" {
		return errors.Wrap(exitcode.ErrBadInput, "--user is required")
	}

	if flags.Password == "" {
		return errors.Wrap(exitcode.ErrBadInput, "--password is required")
	}

	return nil
}

func (flags *Flags) Address() string {
	return netconstants.AddressFromHostPort(flags.Host, flags.Port, flags.HTTPS || flags.Insecure)
}

// Connect logs in to the endpoint, the caller is responsible
// for calling Logout() on the returned client.
func (flags *Flags) Connect(ctx context.Context) (*client.Client, error) {
	if err := flags.Validate(); err != nil {
		return nil, err
	}

	clientOpts := []client.Option{
		client.WithAddress(flags.Address()),
	}

	if flags.Insecure {
		clientOpts = append(clientOpts, client.WithInsecureSkipVerify())
	}

	vmpowerClient, err := client.New(clientOpts...)
	if err != nil {
		return nil, errors.Wrap(exitcode.ErrBadInput, err.Error())
	}

	if _, err := vmpowerClient.Login(ctx, flags.User, flags.Password); err != nil {
		return nil, err
	}

	return vmpowerClient, nil
}
