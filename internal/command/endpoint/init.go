package endpoint

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/cirruslabs/vmpower/internal/certificatefingerprint"
	"github.com/cirruslabs/vmpower/internal/endpoint"
	"github.com/hashicorp/go-multierror"
	"github.com/pterm/pterm"
	"github.com/sethvargo/go-password/password"
	"github.com/spf13/cobra"
)

var ErrInitFailed = errors.New("endpoint initialization failed")

var endpointCertPath string
var endpointKeyPath string
var generateCert bool
var userName string
var userPassword string
var force bool

func newInitCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "init",
		Short: "Initialize the endpoint",
		RunE:  runInit,
	}

	command.PersistentFlags().StringVar(&endpointCertPath, "endpoint-cert", "",
		"serve HTTPS using the certificate from the specified path (requires --endpoint-key)")
	command.PersistentFlags().StringVar(&endpointKeyPath, "endpoint-key", "",
		"serve HTTPS using the certificate key from the specified path (requires --endpoint-cert)")
	command.PersistentFlags().BoolVar(&generateCert, "generate-cert", false,
		"serve HTTPS using an auto-generated self-signed certificate")
	command.PersistentFlags().StringVar(&userName, "user-name", "admin",
		"name of the user to create")
	command.PersistentFlags().StringVar(&userPassword, "user-password", "",
		"password of the user to create (a random password is generated when not specified)")
	command.PersistentFlags().BoolVar(&force, "force", false,
		"force re-initialization if the endpoint is already initialized")

	return command
}

func runInit(cmd *cobra.Command, args []string) (err error) {
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

	if initialized && !force {
		return fmt.Errorf("%w: endpoint is already initialized, preventing overwrite; "+
			"please specify \"--force\" to re-initialize", ErrInitFailed)
	}

	certificate, hasCertificate, err := initCertificate()
	if err != nil {
		return err
	}

	if hasCertificate {
		if err := dataDir.SetCertificate(certificate); err != nil {
			return err
		}
	}

	generatedPassword := userPassword == ""

	if generatedPassword {
		userPassword, err = generatePassword()
		if err != nil {
			return err
		}
	}

	// Create the user using a throwaway endpoint instance
	// that never serves requests
	endpointInstance, err := endpoint.New(endpoint.WithDataDir(dataDir),
		endpoint.WithListenAddr("127.0.0.1:0"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := endpointInstance.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	if err := endpointInstance.EnsureUser(userName, userPassword); err != nil {
		return err
	}

	passwordToDisplay := "<hidden>"
	if generatedPassword {
		passwordToDisplay = userPassword
	}

	messages := []any{
		pterm.Sprintf("Initialized the endpoint in %s:\n", dataDir.Path()),
		pterm.Sprintln(),
		pterm.Sprintf("User name: %s\n", pterm.Bold.Sprint(userName)),
		pterm.Sprintf("User password: %s\n", pterm.Bold.Sprint(passwordToDisplay)),
	}

	if hasCertificate {
		messages = append(messages, pterm.Sprintf("Certificate SHA-256 fingerprint: %s\n",
			pterm.Bold.Sprint(certificatefingerprint.Fingerprint(certificate.Certificate[0]))))
	}

	pterm.Info.WithWriter(cmd.OutOrStdout()).Print(messages...)

	return nil
}

func initCertificate() (tls.Certificate, bool, error) {
	if endpointCertPath != "" || endpointKeyPath != "" {
		if err := checkBothCertAndKeyAreSpecified(); err != nil {
			return tls.Certificate{}, false, err
		}

		certificate, err := tls.LoadX509KeyPair(endpointCertPath, endpointKeyPath)
		if err != nil {
			return tls.Certificate{}, false, err
		}

		return certificate, true, nil
	}

	if !generateCert {
		return tls.Certificate{}, false, nil
	}

	certificate, err := endpoint.GenerateSelfSignedCertificate()
	if err != nil {
		return tls.Certificate{}, false, err
	}

	return certificate, true, nil
}

func checkBothCertAndKeyAreSpecified() error {
	if endpointCertPath == "" {
		return fmt.Errorf("%w: when --endpoint-key is specified, --endpoint-cert must be specified too",
			ErrInitFailed)
	}

	if endpointKeyPath == "" {
		return fmt.Errorf("%w: when --endpoint-cert is specified, --endpoint-key must be specified too",
			ErrInitFailed)
	}

	return nil
}

func generatePassword() (string, error) {
	passwordGenerator, err := password.NewGenerator(&password.GeneratorInput{
		LowerLetters: password.LowerLetters,
		UpperLetters: password.UpperLetters,
		Digits:       password.Digits,
		Symbols: strings.Map(func(r rune) rune {
			// Avoid generating $ and " symbols
			// as they cause issues in shell
			switch r {
			case '$', '"':
				return -1
			default:
				return r
			}
		}, password.Symbols),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to initialize password generator: %w", ErrInitFailed, err)
	}

	generatedPassword, err := passwordGenerator.Generate(32, 10, 10, false, false)
	if err != nil {
		return "", fmt.Errorf("%w: failed to generate password: %w", ErrInitFailed, err)
	}

	return generatedPassword, nil
}
