//nolint:testpackage // we need to have access to Endpoint's handler for this test
package endpoint

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "root"
	testPassword = "correct horse battery staple"
)

func newTestEndpoint(t *testing.T) *Endpoint {
	t.Helper()

	dataDir, err := NewDataDir(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dataDir.Close()
	})

	endpoint, err := New(WithDataDir(dataDir), WithListenAddr("127.0.0.1:0"), WithMaxStepDelay(0))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = endpoint.Close()
	})

	require.NoError(t, endpoint.EnsureUser(testUser, testPassword))
	require.NoError(t, endpoint.EnsureVM(v1.VM{
		Meta: v1.Meta{
			Name: "web-01",
		},
	}))

	return endpoint
}

func (endpoint *Endpoint) do(
	t *testing.T,
	method string,
	path string,
	sessionKey string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader bytes.Buffer

	if body != nil {
		require.NoError(t, json.NewEncoder(&bodyReader).Encode(body))
	}

	request := httptest.NewRequestWithContext(t.Context(), method, path, &bodyReader)
	if sessionKey != "" {
		request.Header.Set(v1.SessionKeyHeader, sessionKey)
	}

	recorder := httptest.NewRecorder()
	endpoint.httpServer.Handler.ServeHTTP(recorder, request)

	return recorder
}

func (endpoint *Endpoint) testLogin(t *testing.T) string {
	t.Helper()

	request := httptest.NewRequestWithContext(t.Context(), http.MethodPost, "/v1/session", nil)
	request.SetBasicAuth(testUser, testPassword)

	recorder := httptest.NewRecorder()
	endpoint.httpServer.Handler.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var session v1.UserSession
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &session))
	require.Equal(t, testUser, session.UserName)
	require.NotEmpty(t, session.Key)

	return session.Key
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))

	return result
}

func TestLoginInvalidCredentials(t *testing.T) {
	endpoint := newTestEndpoint(t)

	for _, credentials := range [][2]string{
		{testUser, "wrong"},
		{"nobody", testPassword},
	} {
		request := httptest.NewRequestWithContext(t.Context(), http.MethodPost, "/v1/session", nil)
		request.SetBasicAuth(credentials[0], credentials[1])

		recorder := httptest.NewRecorder()
		endpoint.httpServer.Handler.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		require.Contains(t, decode[Error](t, recorder).Message, "incorrect user name or password")
	}
}

func TestUnauthenticated(t *testing.T) {
	endpoint := newTestEndpoint(t)

	require.Equal(t, http.StatusUnauthorized, endpoint.do(t, http.MethodGet, "/v1/vms", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, endpoint.do(t, http.MethodGet, "/v1/vms", "bogus", nil).Code)
}

func TestLogout(t *testing.T) {
	endpoint := newTestEndpoint(t)
	sessionKey := endpoint.testLogin(t)

	recorder := endpoint.do(t, http.MethodGet, "/v1/session", sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, sessionKey, decode[v1.UserSession](t, recorder).Key)

	require.Equal(t, http.StatusOK, endpoint.do(t, http.MethodDelete, "/v1/session", sessionKey, nil).Code)
	require.Equal(t, http.StatusUnauthorized, endpoint.do(t, http.MethodGet, "/v1/vms", sessionKey, nil).Code)
}

func TestVMs(t *testing.T) {
	endpoint := newTestEndpoint(t)
	sessionKey := endpoint.testLogin(t)

	// Create
	recorder := endpoint.do(t, http.MethodPost, "/v1/vms", sessionKey, v1.VM{
		CPU:    2,
		Memory: 4096,
		Meta: v1.Meta{
			Name: "db-01",
		},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	vm := decode[v1.VM](t, recorder)
	require.Equal(t, v1.ManagedObjectTypeVirtualMachine, vm.Ref.Type)
	require.Equal(t, v1.VMPowerStatePoweredOff, vm.PowerState)

	// Duplicate
	recorder = endpoint.do(t, http.MethodPost, "/v1/vms", sessionKey, v1.VM{Meta: v1.Meta{Name: "db-01"}})
	require.Equal(t, http.StatusConflict, recorder.Code)

	// Invalid
	recorder = endpoint.do(t, http.MethodPost, "/v1/vms", sessionKey, v1.VM{})
	require.Equal(t, http.StatusPreconditionFailed, recorder.Code)
	recorder = endpoint.do(t, http.MethodPost, "/v1/vms", sessionKey, v1.VM{Meta: v1.Meta{Name: "db 01"}})
	require.Equal(t, http.StatusPreconditionFailed, recorder.Code)

	// Get and list
	recorder = endpoint.do(t, http.MethodGet, "/v1/vms/db-01", sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, vm.Ref, decode[v1.VM](t, recorder).Ref)

	recorder = endpoint.do(t, http.MethodGet, "/v1/vms", sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, decode[[]v1.VM](t, recorder), 2)

	// Delete
	require.Equal(t, http.StatusOK, endpoint.do(t, http.MethodDelete, "/v1/vms/db-01", sessionKey, nil).Code)
	require.Equal(t, http.StatusNotFound, endpoint.do(t, http.MethodGet, "/v1/vms/db-01", sessionKey, nil).Code)
	require.Equal(t, http.StatusNotFound, endpoint.do(t, http.MethodDelete, "/v1/vms/db-01", sessionKey, nil).Code)
}

func TestPowerOnReturnsQueuedTask(t *testing.T) {
	endpoint := newTestEndpoint(t)
	sessionKey := endpoint.testLogin(t)

	recorder := endpoint.do(t, http.MethodPost, "/v1/vms/web-01/power-on", sessionKey, nil)
	require.Equal(t, http.StatusAccepted, recorder.Code)

	task := decode[v1.Task](t, recorder)
	require.Equal(t, "/v1/tasks/"+task.Ref.Value, recorder.Header().Get("Location"))
	require.Equal(t, v1.TaskInfoStateQueued, task.Info.State)
	require.Equal(t, v1.TaskDescriptionPowerOn, task.Info.DescriptionID)
	require.Equal(t, "web-01", task.Info.EntityName)

	recorder = endpoint.do(t, http.MethodGet, "/v1/tasks/"+task.Ref.Value, sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, task.Ref, decode[v1.Task](t, recorder).Ref)

	recorder = endpoint.do(t, http.MethodGet, "/v1/tasks", sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, decode[[]v1.Task](t, recorder), 1)

	// Unknown VM
	recorder = endpoint.do(t, http.MethodPost, "/v1/vms/nonexistent/power-on", sessionKey, nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestPropertyCollector(t *testing.T) {
	endpoint := newTestEndpoint(t)
	sessionKey := endpoint.testLogin(t)

	task := decode[v1.Task](t, endpoint.do(t, http.MethodPost, "/v1/vms/web-01/power-on", sessionKey, nil))

	spec := v1.FilterSpec{
		ObjectSet: []v1.ObjectSpec{{Obj: task.Ref}},
		PropSet:   []v1.PropertySpec{{Type: v1.ManagedObjectTypeTask, All: true}},
	}

	recorder := endpoint.do(t, http.MethodPost, "/v1/property-collector/filters", sessionKey, spec)
	require.Equal(t, http.StatusOK, recorder.Code)
	filter := decode[v1.PropertyFilter](t, recorder)

	// Initial update
	recorder = endpoint.do(t, http.MethodGet, "/v1/property-collector/updates?version=&maxWait=1",
		sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	updateSet := decode[v1.UpdateSet](t, recorder)
	require.Equal(t, "1", updateSet.Version)
	require.Equal(t, filter.Ref, updateSet.FilterSet[0].Filter)
	require.Equal(t, v1.ObjectUpdateKindEnter, updateSet.FilterSet[0].ObjectSet[0].Kind)

	// Nothing happens since the host agent isn't running
	recorder = endpoint.do(t, http.MethodGet, "/v1/property-collector/updates?version=1&maxWait=1",
		sessionKey, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "1", decode[v1.UpdateSet](t, recorder).Version)

	// Stale version
	recorder = endpoint.do(t, http.MethodGet, "/v1/property-collector/updates?version=0&maxWait=1",
		sessionKey, nil)
	require.Equal(t, http.StatusConflict, recorder.Code)

	// Invalid maxWait
	recorder = endpoint.do(t, http.MethodGet, "/v1/property-collector/updates?version=1&maxWait=soon",
		sessionKey, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// Filters are per-session
	otherSessionKey := endpoint.testLogin(t)
	require.Equal(t, http.StatusNotFound, endpoint.do(t, http.MethodDelete,
		"/v1/property-collector/filters/"+filter.Ref.Value, otherSessionKey, nil).Code)

	require.Equal(t, http.StatusOK, endpoint.do(t, http.MethodDelete,
		"/v1/property-collector/filters/"+filter.Ref.Value, sessionKey, nil).Code)
	require.Equal(t, http.StatusNotFound, endpoint.do(t, http.MethodDelete,
		"/v1/property-collector/filters/"+filter.Ref.Value, sessionKey, nil).Code)
}

func TestCreateFilterErrors(t *testing.T) {
	endpoint := newTestEndpoint(t)
	sessionKey := endpoint.testLogin(t)

	recorder := endpoint.do(t, http.MethodPost, "/v1/property-collector/filters", sessionKey, v1.FilterSpec{
		ObjectSet: []v1.ObjectSpec{{Obj: v1.NewTaskReference("task-42")}},
	})
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = endpoint.do(t, http.MethodPost, "/v1/property-collector/filters", sessionKey, v1.FilterSpec{})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
