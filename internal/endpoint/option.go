package endpoint

import (
	"crypto/tls"
	"time"

	"go.uber.org/zap"
)

type Option func(*Endpoint)

func WithDataDir(dataDir *DataDir) Option {
	return func(endpoint *Endpoint) {
		endpoint.dataDir = dataDir
	}
}

func WithListenAddr(listenAddr string) Option {
	return func(endpoint *Endpoint) {
		endpoint.listenAddr = listenAddr
	}
}

func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(endpoint *Endpoint) {
		endpoint.tlsConfig = tlsConfig
	}
}

// WithMaxStepDelay controls how long the simulated power
// operations take, see hostagent.WithMaxStepDelay().
func WithMaxStepDelay(maxStepDelay time.Duration) Option {
	return func(endpoint *Endpoint) {
		endpoint.maxStepDelay = &maxStepDelay
	}
}

func WithSessionIdleTimeout(sessionIdleTimeout time.Duration) Option {
	return func(endpoint *Endpoint) {
		endpoint.sessionIdleTimeout = sessionIdleTimeout
	}
}

func WithTaskRetention(taskRetention time.Duration) Option {
	return func(endpoint *Endpoint) {
		endpoint.taskRetention = taskRetention
	}
}

func WithPrometheusMetrics() Option {
	return func(endpoint *Endpoint) {
		endpoint.prometheusMetrics = true
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(endpoint *Endpoint) {
		endpoint.logger = logger.Sugar()
	}
}
