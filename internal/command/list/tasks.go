package list

import (
	"context"
	"fmt"
	"sort"
	"time"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newListTasksCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "tasks",
		Short: "List recent tasks",
		RunE:  runListTasks,
	}

	return command
}

func runListTasks(cmd *cobra.Command, args []string) error {
	client, err := connectionFlags.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Logout(context.WithoutCancel(cmd.Context()))
	}()

	tasks, err := client.Tasks().List(cmd.Context())
	if err != nil {
		return err
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Info.QueueTime.Before(tasks[j].Info.QueueTime)
	})

	if quiet {
		for _, task := range tasks {
			fmt.Fprintln(cmd.OutOrStdout(), task.Ref.Value)
		}

		return nil
	}

	table := uitable.New()
	table.Wrap = true

	table.AddRow("ID", "Operation", "VM", "Queued", "State", "Error")

	for _, task := range tasks {
		queuedInfo := humanize.RelTime(task.Info.QueueTime, time.Now(), "ago", "in the future")

		table.AddRow(task.Ref.Value, task.Info.DescriptionID, task.Info.EntityName, queuedInfo,
			stateInfo(task.Info), errorInfo(task.Info))
	}

	fmt.Fprintln(cmd.OutOrStdout(), table)

	return nil
}

func stateInfo(info v1.TaskInfo) string {
	if info.State == v1.TaskInfoStateRunning {
		return fmt.Sprintf("%s (%d%%)", info.State, info.Progress)
	}

	return info.State.String()
}

func errorInfo(info v1.TaskInfo) string {
	if info.Error == nil {
		return "-"
	}

	return info.Error.Message
}
