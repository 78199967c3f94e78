package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultRetryAfter = 30 * time.Second

type httpResult struct {
	status int
	body   []byte
	header http.Header
}

// postJSON sends a JSON payload and returns the response.
// Transport-level failures come back as the error; HTTP-level failures are
// left to the caller so each platform can classify its own status codes.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) (*httpResult, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	return &httpResult{status: resp.StatusCode, body: body, header: resp.Header}, nil
}

// classifyStatus converts a non-2xx platform response into a typed error.
func classifyStatus(service string, resp *httpResult) error {
	switch {
	case resp.status >= 200 && resp.status < 300:
		return nil
	case resp.status == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    fmt.Sprintf("%s rate limit exceeded", service),
			RetryAfter: resp.retryAfter(),
		}
	case resp.status >= 400 && resp.status < 500:
		return &ClientError{
			StatusCode: resp.status,
			Message:    fmt.Sprintf("%s client error: %s", service, string(resp.body)),
		}
	case resp.status >= 500:
		return &ServerError{
			StatusCode: resp.status,
			Message:    fmt.Sprintf("%s server error: %s", service, string(resp.body)),
		}
	default:
		return fmt.Errorf("%s unexpected status code %d: %s", service, resp.status, string(resp.body))
	}
}

// retryAfter extracts the backoff hint from a 429 response, falling back to
// a conservative default when the header is missing or unparseable.
func (r *httpResult) retryAfter() time.Duration {
	if r.header == nil {
		return defaultRetryAfter
	}
	raw := r.header.Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultRetryAfter
}

// guardLength rejects content exceeding the platform limit before any API
// call is made.
func guardLength(publisher Publisher, content string, length int) error {
	spec := SpecFor(publisher.Platform())
	if length > spec.MaxLength {
		return &ContentTooLongError{
			Platform: publisher.Platform(),
			Length:   length,
			Limit:    spec.MaxLength,
		}
	}
	return nil
}
