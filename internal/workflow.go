package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a workflow response is read
const maxResponseBytes = 4 << 20

// WorkflowRequest is the JSON body posted to the assistant workflow
type WorkflowRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"sessionId"`
	Language  Language `json:"language"`
}

// WorkflowClient talks to the remote assistant workflow endpoint. It sends
// chat turns and answers reachability probes.
type WorkflowClient struct {
	endpoint    string
	client      *http.Client
	probeMethod string
	timeout     time.Duration
}

// WorkflowOption configures a WorkflowClient
type WorkflowOption func(*WorkflowClient)

// WithHTTPClient replaces the HTTP client used for both sends and probes
func WithHTTPClient(c *http.Client) WorkflowOption {
	return func(w *WorkflowClient) {
		w.client = c
	}
}

// WithDispatchTimeout bounds each send. Zero leaves the transport default.
func WithDispatchTimeout(d time.Duration) WorkflowOption {
	return func(w *WorkflowClient) {
		w.timeout = d
	}
}

// WithProbeMethod sets the probe method, GET or OPTIONS
func WithProbeMethod(method string) WorkflowOption {
	return func(w *WorkflowClient) {
		w.probeMethod = strings.ToUpper(method)
	}
}

// NewWorkflowClient validates endpoint and builds a client for it
func NewWorkflowClient(endpoint string, opts ...WorkflowOption) (*WorkflowClient, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ParseError{Source: "config", Key: "endpoint", Err: fmt.Errorf("invalid endpoint URL %q", endpoint)}
	}

	c := &WorkflowClient{
		endpoint:    endpoint,
		client:      &http.Client{},
		probeMethod: http.MethodGet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the configured URL
func (c *WorkflowClient) Endpoint() string {
	return c.endpoint
}

// Send posts one chat turn and returns the extracted reply text. Any
// transport failure, non-2xx status or malformed body is a *DispatchError.
func (c *WorkflowClient) Send(ctx context.Context, req WorkflowRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &DispatchError{Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &DispatchError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &DispatchError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &DispatchError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DispatchError{Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	reply, err := ExtractReply(data)
	if err != nil {
		return "", &DispatchError{Status: resp.StatusCode, Err: err}
	}
	LogDebug("Workflow reply matched shape %s", reply.Shape)
	return reply.Text, nil
}

// Probe checks reachability. A 2xx or 405 Method Not Allowed answer means
// the endpoint is reachable; anything else, including a timeout, is not.
func (c *WorkflowClient) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, c.probeMethod, c.endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if (resp.StatusCode >= 200 && resp.StatusCode <= 299) || resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	return fmt.Errorf("probe returned status %d", resp.StatusCode)
}
