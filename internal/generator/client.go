package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Client calls the remote test-case generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	stats      *LatencyStats
	backoff    func(attempt int) time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats:   NewLatencyStats(time.Hour),
		backoff: Backoff,
	}
}

// WithStats replaces the latency recorder.
func (c *Client) WithStats(s *LatencyStats) *Client {
	c.stats = s
	return c
}

// Stats returns the latency recorder for this client.
func (c *Client) Stats() *LatencyStats {
	return c.stats
}

// GenerateRequest is the body for POST /chat-generate.
type GenerateRequest struct {
	UserStory          string `json:"user_story"`
	JiraID             string `json:"jira_id"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
}

type chatRequest struct {
	Message string `json:"message"`
	JiraID  string `json:"jira_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type generateResponse struct {
	TestCases json.RawMessage `json:"testCases"`
}

// Chat sends a free-text message about an issue and returns the reply.
func (c *Client) Chat(ctx context.Context, message, jiraID string) (string, error) {
	body, err := c.post(ctx, "/chat", chatRequest{Message: message, JiraID: jiraID})
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return resp.Response, nil
}

// Generate asks the service for test cases and returns them as text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := c.post(ctx, "/chat-generate", req)
	if err != nil {
		return "", err
	}
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return testCasesText(resp.TestCases)
}

// testCasesText accepts testCases as a JSON string or any JSON value.
func testCasesText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("generate response has no testCases")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode testCases: %w", err)
		}
		return stripCodeBlock(s), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("compact testCases: %w", err)
	}
	return buf.String(), nil
}

// post sends v as JSON, retrying retryable failures.
func (c *Client) post(ctx context.Context, path string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}
		body, err := c.once(ctx, path, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d retries: %w", MaxRetries, lastErr)
}

func (c *Client) once(ctx context.Context, path string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generator %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	c.stats.Record(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator %s status %d: %s", path, resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(trimmed); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
