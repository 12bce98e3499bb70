package list

import (
	"github.com/cirruslabs/vmpower/internal/command/connection"
	"github.com/spf13/cobra"
)

var connectionFlags connection.Flags
var quiet bool

func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List resources on the management endpoint",
	}

	command.AddCommand(newListVMsCommand(), newListTasksCommand())

	connectionFlags.Register(command)
	command.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only show resource names")

	return command
}
