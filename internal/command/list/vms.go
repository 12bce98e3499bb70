package list

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newListVMsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "vms",
		Short: "List VMs",
		RunE:  runListVMs,
	}

	return command
}

func runListVMs(cmd *cobra.Command, args []string) error {
	client, err := connectionFlags.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Logout(context.WithoutCancel(cmd.Context()))
	}()

	vms, err := client.VMs().List(cmd.Context())
	if err != nil {
		return err
	}

	if quiet {
		for _, vm := range vms {
			fmt.Fprintln(cmd.OutOrStdout(), vm.Name)
		}

		return nil
	}

	table := uitable.New()

	table.AddRow("Name", "Created", "Guest", "Resources", "Power state", "Booted")

	for _, vm := range vms {
		createdAtInfo := humanize.RelTime(vm.CreatedAt, time.Now(), "ago", "in the future")
		resourcesInfo := fmt.Sprintf("%d CPU, %s", vm.CPU, humanize.IBytes(vm.Memory*humanize.MiByte))

		bootTimeInfo := "-"
		if !vm.BootTime.IsZero() {
			bootTimeInfo = humanize.RelTime(vm.BootTime, time.Now(), "ago", "in the future")
		}

		table.AddRow(vm.Name, createdAtInfo, vm.GuestID, resourcesInfo, vm.PowerState, bootTimeInfo)
	}

	fmt.Fprintln(cmd.OutOrStdout(), table)

	return nil
}
