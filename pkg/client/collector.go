package client

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

// PropertyCollectorService is the session's property-change feed.
type PropertyCollectorService struct {
	client *Client
}

func (service *PropertyCollectorService) CreateFilter(
	ctx context.Context,
	spec v1.FilterSpec,
) (v1.ManagedObjectReference, error) {
	var filter v1.PropertyFilter

	err := service.client.request(ctx, http.MethodPost, "property-collector/filters",
		&spec, &filter, nil)
	if err != nil {
		return v1.ManagedObjectReference{}, err
	}

	return filter.Ref, nil
}

func (service *PropertyCollectorService) DestroyFilter(ctx context.Context, filter v1.ManagedObjectReference) error {
	return service.client.request(ctx, http.MethodDelete,
		fmt.Sprintf("property-collector/filters/%s", filter.Value), nil, nil, nil)
}

// WaitForUpdates blocks until there are changes newer than version
// or until ctx is done.
func (service *PropertyCollectorService) WaitForUpdates(ctx context.Context, version string) (*v1.UpdateSet, error) {
	return service.WaitForUpdatesEx(ctx, version, 0)
}

// WaitForUpdatesEx is like WaitForUpdates, but also asks the endpoint to return
// an empty UpdateSet with the same version when nothing changes within maxWait.
func (service *PropertyCollectorService) WaitForUpdatesEx(
	ctx context.Context,
	version string,
	maxWait time.Duration,
) (*v1.UpdateSet, error) {
	params := map[string]string{
		"version": version,
	}

	// The endpoint accepts whole seconds, round up so that
	// a sub-second bound doesn't turn into no bound at all
	if maxWait > 0 {
		params["maxWait"] = strconv.FormatInt(int64(math.Ceil(maxWait.Seconds())), 10)
	}

	var updateSet v1.UpdateSet

	err := service.client.request(ctx, http.MethodGet, "property-collector/updates",
		nil, &updateSet, params)
	if err != nil {
		return nil, err
	}

	return &updateSet, nil
}
