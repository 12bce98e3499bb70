package client

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

type VMsService struct {
	client *Client
}

func (service *VMsService) Create(ctx context.Context, vm *v1.VM) (*v1.VM, error) {
	var createdVM v1.VM

	err := service.client.request(ctx, http.MethodPost, "vms",
		vm, &createdVM, nil)
	if err != nil {
		return nil, err
	}

	return &createdVM, nil
}

func (service *VMsService) List(ctx context.Context) ([]v1.VM, error) {
	var vms []v1.VM

	err := service.client.request(ctx, http.MethodGet, "vms",
		nil, &vms, nil)
	if err != nil {
		return nil, err
	}

	return vms, nil
}

func (service *VMsService) Get(ctx context.Context, name string) (*v1.VM, error) {
	var vm v1.VM

	err := service.client.request(ctx, http.MethodGet, fmt.Sprintf("vms/%s", name),
		nil, &vm, nil)
	if err != nil {
		return nil, err
	}

	return &vm, nil
}

// PowerOn submits a power-on operation and returns
// the task tracking it without waiting for it to complete.
func (service *VMsService) PowerOn(ctx context.Context, name string) (*v1.Task, error) {
	return service.powerOperation(ctx, name, "power-on")
}

func (service *VMsService) PowerOff(ctx context.Context, name string) (*v1.Task, error) {
	return service.powerOperation(ctx, name, "power-off")
}

func (service *VMsService) powerOperation(ctx context.Context, name string, operation string) (*v1.Task, error) {
	var task v1.Task

	err := service.client.request(ctx, http.MethodPost, fmt.Sprintf("vms/%s/%s", name, operation),
		nil, &task, nil)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (service *VMsService) Delete(ctx context.Context, name string) error {
	return service.client.request(ctx, http.MethodDelete, fmt.Sprintf("vms/%s", name),
		nil, nil, nil)
}
