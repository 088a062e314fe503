// Package http builds the outbound HTTP client used to reach the AutoFillPro
// backend.
package http

import (
	"crypto/tls"
	"net/http"
	"time"
)

const (
	DefaultTimeout               = 30 * time.Second
	DefaultMaxIdleConns          = 100
	DefaultMaxIdleConnsPerHost   = 10
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
)

// ClientConfig configures NewClient. Zero values fall back to the defaults.
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConnsPerHost int
	TLSConfig           *tls.Config

	// Wrap decorates the transport, e.g. with metrics instrumentation.
	Wrap func(http.RoundTripper) http.RoundTripper
}

// NewClient returns an *http.Client with pooled keep-alive connections.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	perHost := cfg.MaxIdleConnsPerHost
	if perHost == 0 {
		perHost = DefaultMaxIdleConnsPerHost
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		TLSClientConfig:       cfg.TLSConfig,
	}

	var rt http.RoundTripper = transport
	if cfg.Wrap != nil {
		rt = cfg.Wrap(rt)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}
