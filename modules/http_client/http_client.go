// Package http_client invokes serverless functions exposed over HTTP(S).
//
// The function input is POSTed as a JSON object to the resource URL and the
// response body is handed back verbatim; mapping it onto declared outputs
// is the caller's concern. Responses outside the 2xx range are errors.
package http_client

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/choreo/internal/ctxlog"
	"resty.dev/v3"
)

// Options configures an Invoker.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("function %s responded with status %d: %s", e.URL, e.Status, e.Body)
}

// Invoker is a shared HTTP client for function invocations.
type Invoker struct {
	client *resty.Client
}

// New creates an Invoker. A zero Timeout disables the client timeout.
func New(opts Options) *Invoker {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if len(opts.Headers) > 0 {
		client.SetHeaders(opts.Headers)
	}
	return &Invoker{client: client}
}

// Invoke POSTs input to url and returns the response body together with
// the measured round-trip time in milliseconds.
func (i *Invoker) Invoke(ctx context.Context, url string, input map[string]any) (string, int64, error) {
	logger := ctxlog.FromContext(ctx).With("invoker", "http", "url", url)
	logger.Debug("Sending function request.")

	if input == nil {
		input = map[string]any{}
	}
	start := time.Now()
	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(input).
		Post(url)
	rtt := time.Since(start).Milliseconds()
	if err != nil {
		return "", rtt, fmt.Errorf("failed to execute request: %w", err)
	}

	body := resp.String()
	logger.Debug("Received function response.", "status", resp.StatusCode(), "rtt_ms", rtt)
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return body, rtt, &StatusError{URL: url, Status: resp.StatusCode(), Body: body}
	}
	return body, rtt, nil
}

// Close releases the client's idle connections.
func (i *Invoker) Close() {
	i.client.Close()
}
