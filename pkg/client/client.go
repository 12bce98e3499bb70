package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/cirruslabs/vmpower/internal/netconstants"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

var (
	ErrFailed           = errors.New("API client failed")
	ErrAPI              = errors.New("API returned an error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrConnectionFailed = errors.New("failed to connect to the management endpoint")
)

type Client struct {
	address   string
	tlsConfig *tls.Config

	httpClient *http.Client
	baseURL    *url.URL

	sessionKeyLock sync.RWMutex
	sessionKey     string
}

type errorResponse struct {
	Message string `json:"message"`
}

func New(opts ...Option) (*Client, error) {
	client := &Client{}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	// Apply defaults
	if client.address == "" {
		client.address = fmt.Sprintf("http://127.0.0.1:%d", netconstants.DefaultEndpointPort)
	}

	// Instantiate client
	//
	// No client-wide timeout here: WaitForUpdates() is a long poll
	// and is bounded by the request's context instead.
	client.httpClient = &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: client.tlsConfig,
		},
	}

	url, err := url.Parse(client.address)
	if err != nil {
		return nil, err
	}
	client.baseURL = url

	return client, nil
}

func (client *Client) Address() string {
	return client.baseURL.String()
}

func (client *Client) SessionKey() string {
	client.sessionKeyLock.RLock()
	defer client.sessionKeyLock.RUnlock()

	return client.sessionKey
}

func (client *Client) setSessionKey(sessionKey string) {
	client.sessionKeyLock.Lock()
	defer client.sessionKeyLock.Unlock()

	client.sessionKey = sessionKey
}

func (client *Client) request(
	ctx context.Context,
	method string,
	path string,
	in interface{},
	out interface{},
	params map[string]string,
	opts ...requestOption,
) error {
	var body io.Reader

	if in != nil {
		jsonBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w to marshal request body: %v", ErrFailed, err)
		}

		body = bytes.NewBuffer(jsonBytes)
	}

	endpointURL, err := url.Parse("v1/" + path)
	if err != nil {
		return fmt.Errorf("%w to parse API endpoint path: %v", ErrFailed, err)
	}

	endpointURL = &url.URL{
		Scheme:  client.baseURL.Scheme,
		User:    client.baseURL.User,
		Host:    client.baseURL.Host,
		Path:    endpointURL.Path,
		RawPath: endpointURL.RawPath,
	}

	values := endpointURL.Query()
	for key, value := range params {
		values.Set(key, value)
	}
	endpointURL.RawQuery = values.Encode()

	request, err := http.NewRequestWithContext(ctx, method, endpointURL.String(), body)
	if err != nil {
		return fmt.Errorf("%w instantiate a request: %v", ErrFailed, err)
	}

	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	if sessionKey := client.SessionKey(); sessionKey != "" {
		request.Header.Set(v1.SessionKeyHeader, sessionKey)
	}

	for _, opt := range opts {
		opt(request)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w to make a request: %w", ErrFailed, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("%w to read response body: %w", ErrFailed, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return apiError(response.StatusCode, bodyBytes)
	}

	if out != nil {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return fmt.Errorf("%w to unmarshal response body: %v", ErrFailed, err)
		}
	}

	return nil
}

func apiError(statusCode int, bodyBytes []byte) error {
	var kind error

	switch statusCode {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrConflict
	}

	message := http.StatusText(statusCode)

	var response errorResponse
	if err := json.Unmarshal(bodyBytes, &response); err == nil && response.Message != "" {
		message = response.Message
	}

	if kind != nil {
		return fmt.Errorf("%w: %w: %d %s", ErrAPI, kind, statusCode, message)
	}

	return fmt.Errorf("%w: %d %s", ErrAPI, statusCode, message)
}

type requestOption func(request *http.Request)

func withBasicAuth(username string, password string) requestOption {
	return func(request *http.Request) {
		request.SetBasicAuth(username, password)
	}
}

func (client *Client) VMs() *VMsService {
	return &VMsService{
		client: client,
	}
}

func (client *Client) Tasks() *TasksService {
	return &TasksService{
		client: client,
	}
}

func (client *Client) PropertyCollector() *PropertyCollectorService {
	return &PropertyCollectorService{
		client: client,
	}
}
