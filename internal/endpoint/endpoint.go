package endpoint

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cirruslabs/vmpower/internal/concurrentmap"
	"github.com/cirruslabs/vmpower/internal/endpoint/hostagent"
	"github.com/cirruslabs/vmpower/internal/endpoint/notifier"
	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/cirruslabs/vmpower/internal/endpoint/store/badger"
	"github.com/cirruslabs/vmpower/internal/netconstants"
	"github.com/cirruslabs/vmpower/internal/simplename"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInitFailed      = errors.New("endpoint initialization failed")
	ErrAdminTaskFailed = errors.New("endpoint administrative task failed")
)

// Endpoint is a management endpoint that exposes the VM inventory,
// the power operation tasks and a per-session property collector.
type Endpoint struct {
	dataDir    *DataDir
	listenAddr string
	tlsConfig  *tls.Config
	listener   net.Listener
	httpServer *http.Server
	store      storepkg.Store
	notifier   *notifier.Notifier
	hostAgent  *hostagent.HostAgent
	sessions   *concurrentmap.ConcurrentMap[*session]
	metrics    *metrics
	logger     *zap.SugaredLogger

	maxStepDelay       *time.Duration
	sessionIdleTimeout time.Duration
	taskRetention      time.Duration
	prometheusMetrics  bool
}

func New(opts ...Option) (*Endpoint, error) {
	endpoint := &Endpoint{
		sessions:           concurrentmap.NewConcurrentMap[*session](),
		sessionIdleTimeout: 30 * time.Minute,
		taskRetention:      10 * time.Minute,
	}

	// Apply options
	for _, opt := range opts {
		opt(endpoint)
	}

	// Apply defaults
	if endpoint.dataDir == nil {
		return nil, fmt.Errorf("%w: please specify the data directory path with WithDataDir()",
			ErrInitFailed)
	}
	if endpoint.listenAddr == "" {
		endpoint.listenAddr = fmt.Sprintf(":%d", netconstants.DefaultEndpointPort)
	}
	if endpoint.logger == nil {
		endpoint.logger = zap.NewNop().Sugar()
	}

	// Instantiate the database
	store, err := badger.NewBadgerStore(endpoint.dataDir.DBPath(), endpoint.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open the database: %v", ErrInitFailed, err)
	}
	endpoint.store = store

	endpoint.notifier = notifier.NewNotifier(endpoint.logger.With("component", "notifier"))

	endpoint.metrics, err = newMetrics(endpoint.sessions)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to register metrics: %v", ErrInitFailed, err)
	}

	// Instantiate the host agent
	hostAgentOpts := []hostagent.Option{
		hostagent.WithLogger(endpoint.logger.With("component", "hostagent")),
		hostagent.WithCompletionHook(endpoint.metrics.taskCompleted),
	}
	if endpoint.maxStepDelay != nil {
		hostAgentOpts = append(hostAgentOpts, hostagent.WithMaxStepDelay(*endpoint.maxStepDelay))
	}

	endpoint.hostAgent, err = hostagent.New(store, hostAgentOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize the host agent: %v", ErrInitFailed, err)
	}

	// Instantiate the endpoint
	listener, err := net.Listen("tcp", endpoint.listenAddr)
	if err != nil {
		return nil, err
	}
	if endpoint.tlsConfig != nil {
		endpoint.listener = tls.NewListener(listener, endpoint.tlsConfig)
	} else {
		endpoint.listener = listener
	}

	endpoint.httpServer = &http.Server{
		Handler:           endpoint.initAPI(),
		ReadHeaderTimeout: 60 * time.Second,
	}

	return endpoint, nil
}

// EnsureUser creates the user or resets its password.
func (endpoint *Endpoint) EnsureUser(name string, password string) error {
	if name == "" {
		return fmt.Errorf("%w: attempted to create a user with an empty name",
			ErrAdminTaskFailed)
	}

	if password == "" {
		return fmt.Errorf("%w: attempted to create a user with an empty password",
			ErrAdminTaskFailed)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: failed to hash the password: %v", ErrAdminTaskFailed, err)
	}

	return endpoint.store.Update(func(txn storepkg.Transaction) error {
		return txn.SetUser(v1.User{
			PasswordHash: passwordHash,
			Meta: v1.Meta{
				Name:      name,
				CreatedAt: time.Now(),
			},
		})
	})
}

// EnsureVM adds the VM to the inventory unless a VM
// with the same name already exists.
func (endpoint *Endpoint) EnsureVM(vm v1.VM) error {
	if err := validateVM(&vm); err != nil {
		return fmt.Errorf("%w: %v", ErrAdminTaskFailed, err)
	}

	return endpoint.store.Update(func(txn storepkg.Transaction) error {
		_, err := txn.GetVM(vm.Name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storepkg.ErrNotFound) {
			return err
		}

		return txn.SetVM(vm)
	})
}

func (endpoint *Endpoint) Run(ctx context.Context) error {
	// Long polls are bound to this context, so that
	// they're released when the endpoint shuts down
	endpoint.httpServer.BaseContext = func(net.Listener) context.Context {
		return ctx
	}

	// Run the host agent that executes the power operations
	hostAgentDone := make(chan struct{})

	go func() {
		defer close(hostAgentDone)

		if err := endpoint.hostAgent.Run(ctx); err != nil {
			endpoint.logger.Errorf("host agent failed: %v", err)
		}
	}()

	// Wake up the long polls whenever a task changes
	if err := endpoint.watchTasks(ctx); err != nil {
		return err
	}

	go endpoint.runJanitor(ctx)

	// A helper function to shut down the HTTP server on context cancellation
	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer shutdownCancel()

		if err := endpoint.httpServer.Shutdown(shutdownCtx); err != nil {
			endpoint.logger.Errorf("failed to cleanly shutdown the HTTP server: %v", err)
		}
	}()

	if err := endpoint.httpServer.Serve(endpoint.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Let the in-flight tasks record their interruption
	<-hostAgentDone

	return endpoint.store.Close()
}

// Close releases the listener and the database of an endpoint
// that was never Run(), e.g. one used for administrative tasks only.
func (endpoint *Endpoint) Close() error {
	var result error

	if err := endpoint.listener.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := endpoint.store.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	return result
}

func (endpoint *Endpoint) watchTasks(ctx context.Context) error {
	watchCh, errCh, err := endpoint.store.WatchTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch the tasks: %w", err)
	}

	go func() {
		for {
			select {
			case message := <-watchCh:
				endpoint.logger.Debugf("task %s: %s (%s)", message.Object.Ref.Value,
					message.Type, message.Object.Info.State)

				endpoint.notifier.NotifyAll()
			case err := <-errCh:
				endpoint.logger.Errorf("task watch failed: %v", err)

				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (endpoint *Endpoint) Address() string {
	hostPort := strings.ReplaceAll(endpoint.listener.Addr().String(), "[::]", "127.0.0.1")

	if endpoint.tlsConfig != nil {
		return fmt.Sprintf("https://%s", hostPort)
	}

	return fmt.Sprintf("http://%s", hostPort)
}

func validateVM(vm *v1.VM) error {
	if err := simplename.Validate(vm.Name); err != nil {
		return fmt.Errorf("invalid VM name %q: %w", vm.Name, err)
	}

	switch vm.PowerState {
	case "":
		vm.PowerState = v1.VMPowerStatePoweredOff
	case v1.VMPowerStatePoweredOff, v1.VMPowerStatePoweredOn, v1.VMPowerStateSuspended:
	default:
		return fmt.Errorf("invalid power state %q", vm.PowerState)
	}

	if vm.Ref.IsZero() {
		vm.Ref = v1.ManagedObjectReference{
			Type:  v1.ManagedObjectTypeVirtualMachine,
			Value: "vm-" + uuid.NewString(),
		}
	}

	if vm.CreatedAt.IsZero() {
		vm.CreatedAt = time.Now()
	}

	return nil
}
