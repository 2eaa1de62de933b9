// Package chat runs the panel conversation: free-text questions about an
// issue and one-shot test-case generation, persisted per issue.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dgallion1/casegen/internal/generator"
	"github.com/dgallion1/casegen/internal/resolver"
	"github.com/dgallion1/casegen/internal/store"
)

var (
	ErrInputTooLong     = errors.New("Character limit exceeded")
	ErrMissingStory     = errors.New("User story data is missing. Please check the Jira issue.")
	ErrAlreadyGenerated = errors.New("Test cases were already generated. Type a message to continue.")
	ErrNetwork          = errors.New("Network error. Please try again.")
)

// IssueInfoSource loads the story the generator works from.
type IssueInfoSource interface {
	GetIssueInfo(ctx context.Context, issueKey string) (resolver.IssueInfo, error)
}

// Generator is the remote test-case service.
type Generator interface {
	Chat(ctx context.Context, message, jiraID string) (string, error)
	Generate(ctx context.Context, req generator.GenerateRequest) (string, error)
}

type Service struct {
	issues        IssueInfoSource
	gen           Generator
	store         store.MessageStore
	maxInputChars int
	log           *slog.Logger

	mu    sync.Mutex
	locks map[string]*issueLock
}

// issueLock serializes sends for one issue. refs counts holders and waiters;
// the entry is removed when it drops to zero.
type issueLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(issues IssueInfoSource, gen Generator, st store.MessageStore, maxInputChars int, log *slog.Logger) *Service {
	return &Service{
		issues:        issues,
		gen:           gen,
		store:         st,
		maxInputChars: maxInputChars,
		log:           log,
		locks:         make(map[string]*issueLock),
	}
}

// Send handles one press of the panel's send button. Non-blank input is a
// chat message; blank input asks for test cases. The updated transcript is
// stored and returned. On generator failure nothing is stored.
func (s *Service) Send(ctx context.Context, issueKey, input string) ([]store.Message, error) {
	if utf8.RuneCountInString(input) > s.maxInputChars {
		return nil, ErrInputTooLong
	}

	unlock := s.lockIssue(issueKey)
	defer unlock()

	key := store.MessageKey(issueKey)
	msgs, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	log := s.log.With("issue", issueKey)

	if message := strings.TrimSpace(input); message != "" {
		reply, err := s.gen.Chat(ctx, message, issueKey)
		if err != nil {
			log.Error("generator chat", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		msgs = append(msgs,
			store.Message{Role: store.RoleUser, Text: message},
			store.Message{Role: store.RoleAI, Text: reply},
		)
	} else {
		if AlreadyGenerated(msgs) {
			return nil, ErrAlreadyGenerated
		}
		info, err := s.issues.GetIssueInfo(ctx, issueKey)
		if err != nil {
			return nil, err
		}
		req, err := BuildGenerateRequest(info)
		if err != nil {
			return nil, err
		}
		testCases, err := s.gen.Generate(ctx, req)
		if err != nil {
			log.Error("generator generate", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		log.Info("test cases generated", "attachments", len(info.Attachments), "chars", len(testCases))
		msgs = append(msgs, store.Message{Role: store.RoleAI, Text: testCases})
	}

	if err := s.store.Set(ctx, key, msgs); err != nil {
		return nil, fmt.Errorf("save transcript: %w", err)
	}
	return msgs, nil
}

// BuildGenerateRequest combines the story and acceptance criteria the way the
// generator expects, appending attachment text as extra context.
func BuildGenerateRequest(info resolver.IssueInfo) (generator.GenerateRequest, error) {
	story := strings.TrimSpace(info.UserStory)
	criteria := strings.TrimSpace(info.AcceptanceCriteria)
	combined := strings.TrimSpace(story + "\n\n" + criteria)
	if combined == "" || info.JiraID == "" {
		return generator.GenerateRequest{}, ErrMissingStory
	}

	var sb strings.Builder
	sb.WriteString(combined)
	for _, a := range info.Attachments {
		sb.WriteString("\n\n--- Attachment: ")
		sb.WriteString(a.Filename)
		sb.WriteString(" ---\n")
		sb.WriteString(a.Text)
	}
	return generator.GenerateRequest{
		UserStory:          sb.String(),
		JiraID:             info.JiraID,
		AcceptanceCriteria: criteria,
	}, nil
}

// AlreadyGenerated reports whether the transcript ends with a generated
// result, i.e. an ai message that does not answer a user message.
func AlreadyGenerated(msgs []store.Message) bool {
	n := len(msgs)
	if n == 0 || msgs[n-1].Role != store.RoleAI {
		return false
	}
	return n == 1 || msgs[n-2].Role != store.RoleUser
}

// LatestAIMessage returns the most recent ai message, which the copy and
// export actions operate on.
func (s *Service) LatestAIMessage(ctx context.Context, issueKey string) (store.Message, bool, error) {
	msgs, _, err := s.store.Get(ctx, store.MessageKey(issueKey))
	if err != nil {
		return store.Message{}, false, fmt.Errorf("load transcript: %w", err)
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == store.RoleAI {
			return msgs[i], true, nil
		}
	}
	return store.Message{}, false, nil
}

func (s *Service) lockIssue(issueKey string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[issueKey]
	if !ok {
		l = &issueLock{}
		s.locks[issueKey] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, issueKey)
		}
		s.mu.Unlock()
	}
}
