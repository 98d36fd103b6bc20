// Package transport wraps net/http with the request shape the providers share:
// fully buffered bodies, a typed error per failure class and a retry helper
// that only re-attempts connection failures.
package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single exchange. Large uploads need the long ceiling.
const DefaultTimeout = 2 * time.Hour

// Request is one HTTP exchange. Header keys are sent as given.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// Response carries the status, headers and the already-read body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client executes Requests.
type Client struct {
	HTTP *http.Client
}

// New returns a Client with the given per-request timeout. A zero timeout
// selects DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

// Default is the shared client used when a provider is not handed one.
var Default = New(DefaultTimeout)

// NewJSONRequest marshals payload and sets the JSON content type.
func NewJSONRequest(method, url string, payload any, header map[string]string) (*Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	h := make(map[string]string, len(header)+1)
	for k, v := range header {
		h[k] = v
	}
	h["Content-Type"] = "application/json"
	return &Request{Method: method, URL: url, Header: h, Body: body}, nil
}

// Do sends req and reads the whole response. Connection and read failures
// come back as *TransportError, non-2xx statuses as *ProtocolError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("decompress: %w", err)}
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// DoJSON sends req and decodes a JSON body into dest. An empty body leaves
// dest untouched.
func (c *Client) DoJSON(ctx context.Context, req *Request, dest any) (*Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := DecodeJSON(resp.Body, dest); err != nil {
		return resp, err
	}
	return resp, nil
}

// DecodeJSON unmarshals body into dest, reporting malformed payloads as
// protocol errors.
func DecodeJSON(body []byte, dest any) error {
	if len(bytes.TrimSpace(body)) == 0 || dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &ProtocolError{Message: fmt.Sprintf("decode response: %v", err), Body: truncate(string(body), 512)}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c == nil || c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
