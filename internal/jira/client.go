package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrIssueNotFound is returned when Jira answers 404 for an issue.
var ErrIssueNotFound = errors.New("jira issue not found")

var keyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[0-9]+$`)

// ValidKey reports whether key looks like a Jira issue key (PROJ-123).
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Client calls the Jira Cloud REST API.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a Jira client. With an email it authenticates with basic
// auth (email + API token), otherwise with the token as a bearer PAT.
func NewClient(baseURL, email, apiToken string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Issue is the subset of a Jira issue the add-on reads.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields holds issue fields. Description stays raw ADF; it may be null.
type Fields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	Attachments []Attachment    `json:"attachment"`
}

// Attachment is file metadata from fields.attachment.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	URL      string `json:"content"`
}

// StatusError is a non-2xx Jira response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira api status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrIssueNotFound && e.StatusCode == http.StatusNotFound
}

// GetIssue fetches /rest/api/3/issue/{key}.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	u := c.baseURL + "/rest/api/3/issue/" + url.PathEscape(key) + "?fields=summary,description,attachment"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, fmt.Errorf("decode issue: %w", err)
	}
	if issue.Key == "" {
		issue.Key = key
	}
	return &issue, nil
}

// DownloadAttachment fetches attachment content, refusing anything larger
// than maxBytes.
func (c *Client) DownloadAttachment(ctx context.Context, a Attachment, maxBytes int64) ([]byte, error) {
	if a.Size > maxBytes {
		return nil, fmt.Errorf("attachment %s is %d bytes, limit %d", a.Filename, a.Size, maxBytes)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", a.Filename, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("download %s: %w", a.Filename, err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.Filename, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("attachment %s exceeds %d bytes", a.Filename, maxBytes)
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.email != "" {
		req.SetBasicAuth(c.email, c.apiToken)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
