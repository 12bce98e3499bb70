package power

import (
	"context"
	"fmt"
	"time"

	"github.com/cirruslabs/vmpower/internal/command/connection"
	"github.com/cirruslabs/vmpower/internal/exitcode"
	"github.com/cirruslabs/vmpower/internal/task"
	"github.com/cirruslabs/vmpower/pkg/client"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type operation struct {
	descriptionID string
	verb          string
}

var (
	powerOn  = operation{descriptionID: v1.TaskDescriptionPowerOn, verb: "powered on"}
	powerOff = operation{descriptionID: v1.TaskDescriptionPowerOff, verb: "powered off"}
)

var connectionFlags connection.Flags
var vmNames []string
var pollTimeout time.Duration
var timeout time.Duration
var debug bool

func NewOnCommand() *cobra.Command {
	return newCommand("on", "Power on one or more VMs and wait for the tasks to complete", powerOn)
}

func NewOffCommand() *cobra.Command {
	return newCommand("off", "Power off one or more VMs and wait for the tasks to complete", powerOff)
}

func newCommand(use string, short string, operation operation) *cobra.Command {
	command := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, operation)
		},
	}

	connectionFlags.Register(command)
	command.Flags().StringArrayVarP(&vmNames, "vmname", "v", []string{},
		"names of the VMs to power on or off (can be specified multiple times)")
	command.Flags().DurationVar(&pollTimeout, "poll-timeout", 0,
		"fail when a single wait for task updates takes longer than this (0 means no limit)")
	command.Flags().DurationVar(&timeout, "timeout", 0,
		"fail when the whole operation takes longer than this (0 means no limit)")
	command.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return command
}

func run(cmd *cobra.Command, operation operation) (err error) {
	if err := connectionFlags.Validate(); err != nil {
		return err
	}

	if len(vmNames) == 0 {
		return errors.Wrap(exitcode.ErrBadInput, "at least one --vmname is required")
	}

	logger, err := createLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := cmd.Context()

	if timeout != 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	vmpowerClient, err := connectionFlags.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if logoutErr := vmpowerClient.Logout(context.WithoutCancel(ctx)); logoutErr != nil {
			logger.Sugar().Warnf("failed to log out: %v", logoutErr)
		}
	}()

	tasks, err := submit(ctx, cmd, vmpowerClient, operation)
	if err != nil {
		return err
	}

	if err := task.Wait(ctx, vmpowerClient.PropertyCollector(), tasks,
		task.WithPollTimeout(pollTimeout), task.WithLogger(logger)); err != nil {
		return err
	}

	pterm.Success.WithWriter(cmd.OutOrStdout()).
		Printfln("Virtual Machine(s) have been %s successfully", operation.verb)

	return nil
}

// submit starts a power operation for every VM that exists,
// names that cannot be resolved are reported and skipped.
func submit(
	ctx context.Context,
	cmd *cobra.Command,
	vmpowerClient *client.Client,
	operation operation,
) ([]v1.ManagedObjectReference, error) {
	vms, err := vmpowerClient.VMs().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve the VM inventory: %w", err)
	}

	vmsByName := lo.KeyBy(vms, func(vm v1.VM) string {
		return vm.Name
	})

	var tasks []v1.ManagedObjectReference

	for _, vmName := range lo.Uniq(vmNames) {
		if _, ok := vmsByName[vmName]; !ok {
			pterm.Warning.WithWriter(cmd.ErrOrStderr()).
				Printfln("Virtual Machine %q was not found, skipping", vmName)

			continue
		}

		var submittedTask *v1.Task

		switch operation.descriptionID {
		case v1.TaskDescriptionPowerOff:
			submittedTask, err = vmpowerClient.VMs().PowerOff(ctx, vmName)
		default:
			submittedTask, err = vmpowerClient.VMs().PowerOn(ctx, vmName)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to submit %s for VM %q: %w", operation.descriptionID, vmName, err)
		}

		tasks = append(tasks, submittedTask.Ref)
	}

	return tasks, nil
}

func createLogger() (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}

	return zap.NewDevelopment()
}
