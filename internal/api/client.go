// Package api talks to the issue tracker backend. It is the only package that
// knows the wire format: records are decoded loosely and handed to the
// normalizer, and updates and deletes travel as POST requests carrying an
// X-HTTP-Method-Override header for hosts that block PATCH and DELETE.
//
// Public methods never return errors. Failures are logged and reported as an
// empty list, a nil record or false.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// MethodOverrideHeader names the verb a POST request stands in for
	MethodOverrideHeader = "X-HTTP-Method-Override"

	projectPath = "/Project"
	issuePath   = "/Issue"
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Client is the backend adapter
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Logger
	newID   func() string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for diagnostics
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithIDGenerator replaces the random UUID generator for new records
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.StandardLogger(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(collection, id string) string {
	u := c.baseURL + collection
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

// request describes one HTTP exchange. With override set the request goes out
// as POST and the override header names method.
type request struct {
	method   string
	override bool
	url      string
	body     any
	decode   bool
}

func (c *Client) do(ctx context.Context, r request) (any, error) {
	var payload io.Reader
	if r.body != nil {
		data, err := sonic.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	wireMethod := r.method
	if r.override {
		wireMethod = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, wireMethod, r.url, payload)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.override {
		req.Header.Set(MethodOverrideHeader, r.method)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Method: r.method, URL: r.url, Code: resp.StatusCode}
	}
	if !r.decode {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	var out any
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding %s %s response: %w", r.method, r.url, err)
	}
	return out, nil
}

func (c *Client) fail(op string, err error, fields log.Fields) {
	entry := c.log.WithField("op", op).WithError(err)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error("backend request failed")
}
