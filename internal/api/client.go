// Package api implements the CareLink EMR HTTP client.
//
// The client handles all REST communication with the CareLink backend:
// chat conversations and messages, patient registration, appointment
// scheduling, staff and department administration, radiology and
// interventional-radiology workflow, and finance bank accounts. All
// business logic (validation, authorization, persistence, ordering, ID
// generation) lives behind these endpoints; the client only moves JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client is the CareLink HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // Session bearer token
}

// New creates a new CareLink client without authentication. Only the
// sign-in endpoint accepts unauthenticated requests.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewWithToken creates a new CareLink client with session authentication.
// All requests include an Authorization: Bearer header.
func NewWithToken(baseURL, token string) *Client {
	c := New(baseURL)
	c.token = token
	return c
}

// Error represents an error response from the CareLink server.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("CareLink error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a CareLink 404 response.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// post sends a POST request and decodes the JSON response.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	return c.send(ctx, http.MethodPost, path, reqBody, respBody)
}

// put sends a PUT request and decodes the JSON response.
func (c *Client) put(ctx context.Context, path string, reqBody, respBody any) error {
	return c.send(ctx, http.MethodPut, path, reqBody, respBody)
}

// delete sends a DELETE request and decodes the JSON response.
func (c *Client) delete(ctx context.Context, path string, respBody any) error {
	return c.send(ctx, http.MethodDelete, path, nil, respBody)
}

// send issues a request with an optional JSON body and decodes the JSON
// response into respBody (which may be nil for acknowledgement-only calls).
func (c *Client) send(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		body, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, respBody)
}

// get sends a GET request with query parameters and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read maxResponseSize+1 to detect oversized responses while still
	// accepting responses exactly at the limit.
	respBodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBodyBytes)) > maxResponseSize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBodyBytes),
		}
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(respBodyBytes, respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
