// Package client is a typed HTTP client of the Masomo API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo/core"
)

const (
	apiKeyHeader = "x-api-key"
	apiPrefix    = "/api/v0"
)

type (
	// Options configures a Client; either Token or APIKey authenticates the requests.
	Options struct {
		BaseURL    string
		Token      string
		APIKey     string
		HTTPClient *http.Client
		Logger     core.Logger
	}

	Client struct {
		baseURL string
		token   string
		apiKey  string
		rest    *rest.Client
		logger  core.Logger
	}

	// Envelope is the body of every successful response.
	Envelope struct {
		Status     string          `json:"status"`
		Results    *int            `json:"results,omitempty"`
		TotalPages *int64          `json:"total_pages,omitempty"`
		Message    string          `json:"message,omitempty"`
		Data       json.RawMessage `json:"data,omitempty"`
	}
)

func New(opts Options) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(opts.BaseURL, "BaseURL"),
		vala.IsNotNil(opts.Logger, "Logger"),
	).Check(); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, errors.Wrap(err, "parsing base url")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/") + apiPrefix,
		token:   opts.Token,
		apiKey:  opts.APIKey,
		rest:    &rest.Client{HTTPClient: httpClient},
		logger:  opts.Logger,
	}, nil
}

// WithToken returns a copy of c authenticated by a user token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	cp.apiKey = ""
	return &cp
}

// Do sends a request and decodes the response body into out, if any.
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	raw, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding response")
}

// Get fetches a single object and decodes `data.<key>` into out.
func (c *Client) Get(ctx context.Context, path, key string, out interface{}) error {
	var env Envelope
	if err := c.Do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
		return err
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return errors.Wrap(err, "decoding data")
	}
	obj, ok := data[key]
	if !ok {
		return errors.Errorf("missing %q in response data", key)
	}
	return errors.Wrap(json.Unmarshal(obj, out), "decoding "+key)
}

// List fetches a collection and decodes its normalized items.
func List[T any](ctx context.Context, c *Client, path, resource string, query map[string]string) ([]T, Envelope, error) {
	var env Envelope
	raw, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, env, err
	}
	// bare arrays carry no envelope
	_ = json.Unmarshal(raw, &env)

	items := NormalizeArrayResponse(raw, resource, c.logger)
	out := make([]T, 0, len(items))
	for _, item := range items {
		var obj T
		if err = json.Unmarshal(item, &obj); err != nil {
			return nil, env, errors.Wrapf(err, "decoding %s", resource)
		}
		out = append(out, obj)
	}
	return out, env, nil
}

func (c *Client) send(ctx context.Context, method, path string, query map[string]string, body interface{}) ([]byte, error) {
	req := rest.Request{
		Method:      rest.Method(method),
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding body")
		}
		req.Body = b
	}
	switch {
	case c.token != "":
		req.Headers["Authorization"] = "Bearer " + c.token
	case c.apiKey != "":
		req.Headers[apiKeyHeader] = c.apiKey
	}

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s %s", method, path))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, []byte(resp.Body))
	}
	return []byte(resp.Body), nil
}
