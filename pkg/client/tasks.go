package client

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

type TasksService struct {
	client *Client
}

func (service *TasksService) List(ctx context.Context) ([]v1.Task, error) {
	var tasks []v1.Task

	err := service.client.request(ctx, http.MethodGet, "tasks",
		nil, &tasks, nil)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (service *TasksService) Get(ctx context.Context, ref v1.ManagedObjectReference) (*v1.Task, error) {
	var task v1.Task

	err := service.client.request(ctx, http.MethodGet, fmt.Sprintf("tasks/%s", ref.Value),
		nil, &task, nil)
	if err != nil {
		return nil, err
	}

	return &task, nil
}
