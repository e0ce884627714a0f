// Package remote talks to the collection endpoint (a Google Apps Script web
// app in the reference deployment, or `survey serve`). One URL serves both
// operations: GET with action=assignGroup allocates a group, POST with a
// JSON body submits results.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/corey/survey/internal/domain/survey"
)

// AssignAction is the action parameter of an allocation request.
const AssignAction = "assignGroup"

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

// ErrMalformed marks a 2xx response whose body could not be understood.
var ErrMalformed = errors.New("malformed response")

// Client implements ports.Allocator and ports.Collector over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for endpoint. timeout bounds each request;
// zero disables the client-side deadline.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}, nil
}

// allocation is the allocation endpoint's response body.
type allocation struct {
	GroupID *int `json:"groupId"`
}

// Allocate requests a group for the respondent's stratum. The demographics
// travel as query parameters next to action=assignGroup.
func (c *Client) Allocate(ctx context.Context, d survey.Demographics) (int, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", AssignAction)
	q.Set("gender", d.Gender)
	q.Set("age", d.Age)
	q.Set("job", d.Job)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("create allocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "allocate")
	if err != nil {
		return 0, err
	}

	var a allocation
	if err := json.Unmarshal(body, &a); err != nil {
		return 0, fmt.Errorf("allocate: %w: %v", ErrMalformed, err)
	}
	if a.GroupID == nil {
		return 0, fmt.Errorf("allocate: %w: no groupId", ErrMalformed)
	}
	return *a.GroupID, nil
}

// Collect posts the submission. The body is JSON sent as text/plain, which
// Apps Script web apps accept without a CORS preflight.
func (c *Client) Collect(ctx context.Context, sub survey.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	_, err = c.do(req, "submit")
	return err
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// CloseIdle releases pooled connections.
func (c *Client) CloseIdle() {
	c.http.CloseIdleConnections()
}
