package endpoint

import (
	"context"
	"time"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/hashicorp/go-multierror"
)

const janitorInterval = 30 * time.Second

func (endpoint *Endpoint) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		if err := endpoint.runJanitorInner(); err != nil {
			endpoint.logger.Errorf("janitor failed: %v", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (endpoint *Endpoint) runJanitorInner() error {
	var result error

	// Expire idle sessions along with their property filters
	var expiredSessions []string

	endpoint.sessions.Range(func(key string, session *session) bool {
		if session.idleFor() > endpoint.sessionIdleTimeout {
			expiredSessions = append(expiredSessions, key)
		}

		return true
	})

	for _, key := range expiredSessions {
		endpoint.logger.Debugf("expiring idle session %s", key)

		endpoint.sessions.Delete(key)
	}

	endpoint.metrics.observeSessions()

	// Remove tasks that have completed long ago
	if err := endpoint.store.Update(func(txn storepkg.Transaction) error {
		tasks, err := txn.ListTasks()
		if err != nil {
			return err
		}

		var txnResult error

		for _, task := range tasks {
			if !task.Info.State.Terminal() {
				continue
			}

			if time.Since(task.Info.CompleteTime) < endpoint.taskRetention {
				continue
			}

			endpoint.logger.Debugf("removing task %s completed at %s", task.Ref.Value,
				task.Info.CompleteTime)

			if err := txn.DeleteTask(task.Ref.Value); err != nil {
				txnResult = multierror.Append(txnResult, err)
			}
		}

		return txnResult
	}); err != nil {
		result = multierror.Append(result, err)
	}

	return result
}
