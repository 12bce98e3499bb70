package client

import (
	"crypto/tls"
)

type Option func(*Client)

func WithAddress(address string) Option {
	return func(client *Client) {
		client.address = address
	}
}

func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(client *Client) {
		client.tlsConfig = tlsConfig
	}
}

// WithInsecureSkipVerify disables verification of the endpoint's certificate,
// ESXi-style hosts usually present a self-signed one.
func WithInsecureSkipVerify() Option {
	return func(client *Client) {
		//nolint:gosec // explicitly requested by the user
		client.tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true,
		}
	}
}

// WithSessionKey resumes an already established session.
func WithSessionKey(sessionKey string) Option {
	return func(client *Client) {
		client.sessionKey = sessionKey
	}
}
