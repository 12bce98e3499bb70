package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/pb"
)

func (store *Store) WatchTasks(ctx context.Context) (chan storepkg.WatchMessage[v1.Task], chan error, error) {
	readyCh := make(chan struct{}, 1)
	watchCh := make(chan storepkg.WatchMessage[v1.Task], 16)
	errCh := make(chan error, 1)

	go func() {
		// Task IDs that we've already seen a write for,
		// used to tell creations from modifications
		seen := map[string]struct{}{}

		if err := store.db.Subscribe(ctx, func(kvList *badger.KVList) error {
			// Notify the caller that we've subscribed, but don't block,
			// because we may observe multiple watch barriers, yet
			// we only need a single barrier to make things work
			select {
			case readyCh <- struct{}{}:
			default:
			}

			for _, kv := range kvList.GetKv() {
				if bytes.Equal(kv.GetKey(), WatchBarrierKey()) {
					// We only need watch barriers so that the Subscribe()'s callback
					// is called at least once, thus we can simply do nothing here
					continue
				}

				if !bytes.HasPrefix(kv.GetKey(), []byte(SpaceTasks)) {
					return fmt.Errorf("watcher encountered an unexpected key %q", string(kv.GetKey()))
				}

				id := path.Base(string(kv.GetKey()))

				var message storepkg.WatchMessage[v1.Task]

				if kv.GetValue() == nil {
					// Task was deleted
					message.Type = storepkg.WatchMessageTypeDeleted
					message.Object.Ref = v1.NewTaskReference(id)

					delete(seen, id)
				} else {
					// Task was created or modified
					if err := json.Unmarshal(kv.GetValue(), &message.Object); err != nil {
						return err
					}

					if _, ok := seen[id]; ok {
						message.Type = storepkg.WatchMessageTypeModified
					} else {
						message.Type = storepkg.WatchMessageTypeAdded
						seen[id] = struct{}{}
					}
				}

				select {
				case watchCh <- message:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			return nil
		}, []pb.Match{
			{
				Prefix: WatchBarrierKey(),
			},
			{
				Prefix: []byte(SpaceTasks),
			},
		}); err != nil && ctx.Err() == nil {
			errCh <- err
		}
	}()

	// Trigger the watch barrier so that Subscribe() callback gets invoked
	if err := store.notifyWatchBarrier(); err != nil {
		return nil, nil, err
	}

	// Wait for the Subscribe() callback to be invoked
	for {
		select {
		case <-readyCh:
			// Subscription has started
			return watchCh, errCh, nil
		case <-time.After(time.Second):
			// Possible race with late goroutine start, re-issue watch barrier
			if err := store.notifyWatchBarrier(); err != nil {
				return nil, nil, err
			}
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
}
