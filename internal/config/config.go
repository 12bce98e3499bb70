package config

import (
	"fmt"
	"os"

	"github.com/cirruslabs/vmpower/internal/simplename"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Inventory is the endpoint's seed data: users that can log in
// and VMs that can be powered on and off.
type Inventory struct {
	Users []User `yaml:"users,omitempty"`
	VMs   []VM   `yaml:"vms,omitempty"`
}

type User struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

type VM struct {
	Name       string          `yaml:"name"`
	GuestID    string          `yaml:"guestId,omitempty"`
	CPU        uint64          `yaml:"cpu,omitempty"`
	Memory     uint64          `yaml:"memory,omitempty"`
	PowerState v1.VMPowerState `yaml:"powerState,omitempty"`
}

func (vm VM) Resource() v1.VM {
	return v1.VM{
		GuestID:    vm.GuestID,
		CPU:        vm.CPU,
		Memory:     vm.Memory,
		PowerState: vm.PowerState,
		Meta: v1.Meta{
			Name: vm.Name,
		},
	}
}

func Load(path string) (*Inventory, error) {
	inventoryBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigReadFailed, err)
	}

	return Parse(inventoryBytes)
}

func Parse(inventoryBytes []byte) (*Inventory, error) {
	var inventory Inventory

	if err := yaml.Unmarshal(inventoryBytes, &inventory); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %v", ErrConfigInvalid, err)
	}

	if err := inventory.validate(); err != nil {
		return nil, err
	}

	return &inventory, nil
}

func (inventory *Inventory) validate() error {
	var result error

	for i, user := range inventory.Users {
		if user.Name == "" || user.Password == "" {
			result = multierror.Append(result, fmt.Errorf("%w: user #%d should have both name and password set",
				ErrConfigInvalid, i+1))
		}
	}

	for i, vm := range inventory.VMs {
		if err := simplename.Validate(vm.Name); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: VM #%d has an invalid name: %w", ErrConfigInvalid, i+1, err))
		}
	}

	userNames := lo.Map(inventory.Users, func(user User, _ int) string { return user.Name })
	for _, name := range lo.FindDuplicates(userNames) {
		result = multierror.Append(result, fmt.Errorf("%w: duplicate user %q", ErrConfigInvalid, name))
	}

	vmNames := lo.Map(inventory.VMs, func(vm VM, _ int) string { return vm.Name })
	for _, name := range lo.FindDuplicates(vmNames) {
		result = multierror.Append(result, fmt.Errorf("%w: duplicate VM %q", ErrConfigInvalid, name))
	}

	return result
}
