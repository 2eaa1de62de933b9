package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/casegen/internal/adf"
	"github.com/dgallion1/casegen/internal/doctree"
	"github.com/dgallion1/casegen/internal/jira"
	"github.com/dgallion1/casegen/internal/parser"
	"github.com/dgallion1/casegen/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrIssueFetch wraps any failure to load an issue from Jira.
	ErrIssueFetch = errors.New("Failed to fetch Jira issue details.")
	// ErrInvalidMessages is returned when a store payload has no messages array.
	ErrInvalidMessages = errors.New("Invalid messages format")
)

// IssueSource is the part of the Jira client the resolver needs.
type IssueSource interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	DownloadAttachment(ctx context.Context, a jira.Attachment, maxBytes int64) ([]byte, error)
}

// IssueInfo is what the panel needs to generate test cases for an issue.
type IssueInfo struct {
	UserStory          string           `json:"userStory"`
	AcceptanceCriteria string           `json:"acceptanceCriteria"`
	JiraID             string           `json:"jiraId"`
	Summary            string           `json:"summary"`
	Attachments        []AttachmentText `json:"attachments"`
}

// AttachmentText is the extracted text of one issue attachment.
type AttachmentText struct {
	Filename  string `json:"filename"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Options controls attachment handling.
type Options struct {
	IncludeAttachments bool
	MaxAttachmentBytes int64
	MaxContextTokens   int
	Parser             parser.Options
}

type Resolver struct {
	issues IssueSource
	store  store.MessageStore
	opts   Options
	log    *slog.Logger
}

func New(issues IssueSource, st store.MessageStore, opts Options, log *slog.Logger) *Resolver {
	return &Resolver{issues: issues, store: st, opts: opts, log: log}
}

// GetIssueInfo fetches an issue and flattens its description into the user
// story. Acceptance criteria are not read from Jira and are always empty.
func (r *Resolver) GetIssueInfo(ctx context.Context, issueKey string) (IssueInfo, error) {
	issue, err := r.issues.GetIssue(ctx, issueKey)
	if err != nil {
		r.log.Error("get issue info", "issue", issueKey, "error", err)
		return IssueInfo{}, fmt.Errorf("%w: %s: %w", ErrIssueFetch, issueKey, err)
	}

	info := IssueInfo{
		UserStory:          adf.FlattenDocument(issue.Fields.Description),
		AcceptanceCriteria: "",
		JiraID:             issueKey,
		Summary:            issue.Fields.Summary,
		Attachments:        []AttachmentText{},
	}
	if r.opts.IncludeAttachments {
		info.Attachments = r.attachmentTexts(ctx, issueKey, issue.Fields.Attachments)
	}
	return info, nil
}

// attachmentWorkers bounds concurrent attachment downloads per issue.
const attachmentWorkers = 4

// attachmentTexts downloads and parses supported attachments concurrently,
// then keeps them in issue order until the token budget is spent. Failures
// are logged and skipped.
func (r *Resolver) attachmentTexts(ctx context.Context, issueKey string, atts []jira.Attachment) []AttachmentText {
	log := r.log.With("issue", issueKey)
	texts := make([]string, len(atts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(attachmentWorkers)
	for i, a := range atts {
		if !parser.IsSupported(a.Filename) {
			log.Debug("skip unsupported attachment", "filename", a.Filename, "mime", a.MimeType)
			continue
		}
		g.Go(func() error {
			text, err := r.attachmentText(gctx, a)
			if err != nil {
				log.Warn("skip attachment", "filename", a.Filename, "error", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	g.Wait()

	out := []AttachmentText{}
	remaining := r.opts.MaxContextTokens
	for i, text := range texts {
		if text == "" {
			continue
		}
		text, truncated := doctree.TruncateTokens(text, remaining)
		if text == "" {
			log.Info("attachment budget exhausted", "skipped", atts[i].Filename)
			break
		}
		remaining -= doctree.EstimateTokens(text)
		out = append(out, AttachmentText{Filename: atts[i].Filename, Text: text, Truncated: truncated})
	}
	return out
}

func (r *Resolver) attachmentText(ctx context.Context, a jira.Attachment) (string, error) {
	data, err := r.issues.DownloadAttachment(ctx, a, r.opts.MaxAttachmentBytes)
	if err != nil {
		return "", err
	}
	return parser.ExtractText(data, a.Filename, r.opts.Parser)
}

// GetStoredMessages returns the issue's transcript; a missing one is empty.
func (r *Resolver) GetStoredMessages(ctx context.Context, issueKey string) ([]store.Message, error) {
	msgs, found, err := r.store.Get(ctx, store.MessageKey(issueKey))
	if err != nil {
		return nil, fmt.Errorf("get messages for %s: %w", issueKey, err)
	}
	if !found || msgs == nil {
		return []store.Message{}, nil
	}
	return msgs, nil
}

// StoreMessages replaces the transcript with payload.messages, which must be
// a JSON array. Elements are decoded leniently; see store.Message.
func (r *Resolver) StoreMessages(ctx context.Context, issueKey string, payload []byte) error {
	var body struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ErrInvalidMessages
	}
	raw := bytes.TrimSpace(body.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		return ErrInvalidMessages
	}
	var msgs []store.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return ErrInvalidMessages
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	if err := r.store.Set(ctx, store.MessageKey(issueKey), msgs); err != nil {
		return fmt.Errorf("store messages for %s: %w", issueKey, err)
	}
	return nil
}

// ClearMessages deletes the issue's transcript.
func (r *Resolver) ClearMessages(ctx context.Context, issueKey string) error {
	if err := r.store.Delete(ctx, store.MessageKey(issueKey)); err != nil {
		return fmt.Errorf("clear messages for %s: %w", issueKey, err)
	}
	return nil
}
