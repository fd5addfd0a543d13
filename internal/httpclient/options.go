package httpclient

import (
	"net/http"
	"time"
)

type clientOptions struct {
	client         *http.Client
	providerName   string
	baseURL        string
	requestTimeout *time.Duration
	defaultHeaders map[string]string
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientOptions)

func newClientOptions(opts ...ClientOption) *clientOptions {
	options := &clientOptions{
		defaultHeaders: map[string]string{},
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithClient supplies a pre-built http.Client.
func WithClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.client = client
	}
}

// WithProviderName labels request metrics with the upstream provider.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) {
		o.providerName = name
	}
}

// WithBaseURL sets the base URL prepended to relative request paths.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithRequestTimeout overrides the default per-request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.requestTimeout = &timeout
	}
}

// WithHeader adds a default header applied to every request.
func WithHeader(key, value string) ClientOption {
	return func(o *clientOptions) {
		o.defaultHeaders[key] = value
	}
}
