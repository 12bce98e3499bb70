package client

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

// Login establishes a session that is used by all subsequent requests.
//
// The returned error always wraps ErrConnectionFailed.
func (client *Client) Login(ctx context.Context, username string, password string) (*v1.UserSession, error) {
	var session v1.UserSession

	err := client.request(ctx, http.MethodPost, "session", nil, &session, nil,
		withBasicAuth(username, password))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	client.setSessionKey(session.Key)

	return &session, nil
}

func (client *Client) CurrentSession(ctx context.Context) (*v1.UserSession, error) {
	var session v1.UserSession

	err := client.request(ctx, http.MethodGet, "session", nil, &session, nil)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// Logout terminates the session, the client can be logged in again afterwards.
func (client *Client) Logout(ctx context.Context) error {
	if client.SessionKey() == "" {
		return nil
	}

	err := client.request(ctx, http.MethodDelete, "session", nil, nil, nil)

	client.setSessionKey("")

	return err
}
