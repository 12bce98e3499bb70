//nolint:testpackage // janitor is not exposed outside of the endpoint
package endpoint

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/stretchr/testify/require"
)

func TestJanitor(t *testing.T) {
	endpoint := newTestEndpoint(t)

	activeSessionKey := endpoint.testLogin(t)
	idleSessionKey := endpoint.testLogin(t)

	idleSession, ok := endpoint.sessions.Load(idleSessionKey)
	require.True(t, ok)
	idleSession.info.LastActiveTime = time.Now().Add(-2 * endpoint.sessionIdleTimeout)

	now := time.Now()

	tasks := []v1.Task{
		{
			Ref:  v1.NewTaskReference("task-old"),
			Info: v1.TaskInfo{State: v1.TaskInfoStateSuccess, CompleteTime: now.Add(-2 * endpoint.taskRetention)},
		},
		{
			Ref:  v1.NewTaskReference("task-recent"),
			Info: v1.TaskInfo{State: v1.TaskInfoStateError, CompleteTime: now},
		},
		{
			Ref:  v1.NewTaskReference("task-running"),
			Info: v1.TaskInfo{State: v1.TaskInfoStateRunning},
		},
	}

	require.NoError(t, endpoint.store.Update(func(txn storepkg.Transaction) error {
		for _, task := range tasks {
			if err := txn.SetTask(task); err != nil {
				return err
			}
		}

		return nil
	}))

	require.NoError(t, endpoint.runJanitorInner())

	_, ok = endpoint.sessions.Load(activeSessionKey)
	require.True(t, ok)
	_, ok = endpoint.sessions.Load(idleSessionKey)
	require.False(t, ok)

	require.NoError(t, endpoint.store.View(func(txn storepkg.Transaction) error {
		remaining, err := txn.ListTasks()
		if err != nil {
			return err
		}

		var ids []string
		for _, task := range remaining {
			ids = append(ids, task.Ref.Value)
		}
		require.ElementsMatch(t, []string{"task-recent", "task-running"}, ids)

		return nil
	}))
}

func TestJanitorKeepsSessionDuringLongPoll(t *testing.T) {
	endpoint := newTestEndpoint(t)
	endpoint.sessionIdleTimeout = time.Minute

	sessionKey := endpoint.testLogin(t)

	task := decode[v1.Task](t, endpoint.do(t, http.MethodPost, "/v1/vms/web-01/power-on", sessionKey, nil))
	require.Equal(t, http.StatusOK, endpoint.do(t, http.MethodPost, "/v1/property-collector/filters",
		sessionKey, v1.FilterSpec{
			ObjectSet: []v1.ObjectSpec{{Obj: task.Ref}},
			PropSet:   []v1.PropertySpec{{Type: v1.ManagedObjectTypeTask, All: true}},
		}).Code)
	require.Equal(t, http.StatusOK, endpoint.do(t, http.MethodGet,
		"/v1/property-collector/updates?version=&maxWait=1", sessionKey, nil).Code)

	session, ok := endpoint.sessions.Load(sessionKey)
	require.True(t, ok)

	// Nothing changes since the host agent isn't running,
	// so this request blocks for the whole maxWait
	request := httptest.NewRequestWithContext(t.Context(), http.MethodGet,
		"/v1/property-collector/updates?version=1&maxWait=2", nil)
	request.Header.Set(v1.SessionKeyHeader, sessionKey)
	recorder := httptest.NewRecorder()

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)

		endpoint.httpServer.Handler.ServeHTTP(recorder, request)
	}()

	require.Eventually(t, func() bool {
		session.mtx.Lock()
		defer session.mtx.Unlock()

		return session.activePolls > 0
	}, 5*time.Second, 10*time.Millisecond)

	// Pretend that the poll has been going on for longer than the idle timeout
	session.mtx.Lock()
	session.info.LastActiveTime = time.Now().Add(-2 * endpoint.sessionIdleTimeout)
	session.mtx.Unlock()

	require.NoError(t, endpoint.runJanitorInner())
	_, ok = endpoint.sessions.Load(sessionKey)
	require.True(t, ok)

	<-pollDone
	require.Equal(t, http.StatusOK, recorder.Code)

	// Returning from the poll counts as activity
	require.Less(t, session.idleFor(), endpoint.sessionIdleTimeout)
	require.NoError(t, endpoint.runJanitorInner())
	_, ok = endpoint.sessions.Load(sessionKey)
	require.True(t, ok)
}

func TestDataDirLocked(t *testing.T) {
	path := t.TempDir()

	dataDir, err := NewDataDir(path)
	require.NoError(t, err)
	defer dataDir.Close()

	_, err = NewDataDir(path)
	require.ErrorIs(t, err, ErrDataDirLocked)
}
