package tushare

import (
	"net/http"

	"pricehistory/internal/provider"
)

const baseURL = "http://api.tushare.pro"

// Client is a client for the Tushare Pro HTTP API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// token authenticates every request body.
	token string
	// httpClient sends the requests.
	httpClient provider.HTTPClient
}

// Option is a configuration option for the Tushare client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient provider.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Tushare client.
func New(token string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return "Tushare" }
