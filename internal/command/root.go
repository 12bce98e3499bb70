package command

import (
	"github.com/cirruslabs/vmpower/internal/command/dev"
	"github.com/cirruslabs/vmpower/internal/command/endpoint"
	"github.com/cirruslabs/vmpower/internal/command/list"
	"github.com/cirruslabs/vmpower/internal/command/power"
	"github.com/cirruslabs/vmpower/internal/exitcode"
	"github.com/cirruslabs/vmpower/internal/version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	command := &cobra.Command{
		Use:           "vmpower",
		Short:         "Power virtual machines on and off and wait for the tasks to complete",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.FullVersion,
	}

	// Flag parsing errors are user errors too
	command.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(exitcode.ErrBadInput, err.Error())
	})

	addGroupedCommands(command, "Working With VMs:",
		power.NewOnCommand(),
		power.NewOffCommand(),
		list.NewCommand(),
	)

	addGroupedCommands(command, "Administrative Tasks:",
		endpoint.NewCommand(),
		dev.NewCommand(),
	)

	return command
}

func addGroupedCommands(parent *cobra.Command, title string, commands ...*cobra.Command) {
	group := &cobra.Group{
		ID:    title,
		Title: title,
	}
	parent.AddGroup(group)

	for _, command := range commands {
		command.GroupID = group.ID
		parent.AddCommand(command)
	}
}
