package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/retrieval"
)

// Manager runs chat sessions end to end: history persistence, token-budget
// truncation, context retrieval, and the provider call.
type Manager struct {
	options   Options
	truncator *Truncator
	retrieval *retrieval.Engine
}

func (m *Manager) CreateSession(ctx context.Context, title string) (*SessionInfo, error) {
	id := uuid.New().String()

	if len(strings.TrimSpace(title)) == 0 {
		title = "Chat " + time.Now().UTC().Format("2006-01-02 15:04")
	}

	s, err := openSession(id, m.options.Dir)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	info := SessionInfo{
		Id:        id,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.saveInfo(ctx, info); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "created chat session", "session_id", id)

	return &info, nil
}

func (m *Manager) Session(ctx context.Context, sessionId string) (*SessionInfo, error) {
	s, err := openSession(sessionId, m.options.Dir)
	if err != nil {
		return nil, err
	}

	return s.info(ctx)
}

func (m *Manager) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	entries, err := os.ReadDir(m.options.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionInfo

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		s, err := openSession(entry.Name(), m.options.Dir)
		if err != nil {
			continue
		}

		info, err := s.info(ctx)
		if err != nil || info == nil {
			continue
		}

		sessions = append(sessions, *info)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

func (m *Manager) DeleteSession(ctx context.Context, sessionId string) error {
	s, err := openSession(sessionId, m.options.Dir)
	if err != nil {
		return err
	}

	return os.RemoveAll(s.dir)
}

func (m *Manager) ArchiveSession(ctx context.Context, sessionId string) error {
	s, err := openSession(sessionId, m.options.Dir)
	if err != nil {
		return err
	}

	info, err := s.info(ctx)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("session %s not found", sessionId)
	}

	info.Archived = true
	info.UpdatedAt = time.Now().UTC()

	return s.saveInfo(ctx, *info)
}

func (m *Manager) Messages(ctx context.Context, sessionId string, limit int, offset int) ([]Message, error) {
	s, err := openSession(sessionId, m.options.Dir)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages(ctx)
	if err != nil {
		return nil, err
	}

	if offset > 0 {
		if offset >= len(msgs) {
			return nil, nil
		}
		msgs = msgs[offset:]
	}

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}

	return msgs, nil
}

// SendMessage truncates history if needed, optionally augments the prompt
// with retrieved context, calls the generator, and persists both turns.
// Retrieval failures degrade to answering without context.
func (m *Manager) SendMessage(ctx context.Context, sessionId string, content string, sourceIds []string) (*Message, error) {
	if len(strings.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("message content is required")
	}

	if m.options.Generator == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	s, err := openSession(sessionId, m.options.Dir)
	if err != nil {
		return nil, err
	}

	info, err := s.info(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	history, err := s.messages(ctx)
	if err != nil {
		return nil, err
	}

	history = m.truncator.TruncateIfNeeded(ctx, history, content)

	prompt := m.buildMessages(ctx, history, content, sourceIds)

	rsp, err := m.options.Generator.Chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	userMsg := Message{
		Id:        uuid.New().String(),
		Role:      generator.RoleUser,
		Content:   content,
		Timestamp: now,
	}

	assistantMsg := Message{
		Id:        uuid.New().String(),
		Role:      generator.RoleAssistant,
		Content:   rsp.Content,
		Timestamp: time.Now().UTC(),
		Provider:  m.options.Provider,
		Model:     rsp.Model,
		Usage:     &rsp.Usage,
	}

	if err := s.appendMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	if err := s.appendMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	info.UpdatedAt = time.Now().UTC()
	info.TotalTokens += rsp.Usage.TotalTokens
	if err := s.saveInfo(ctx, *info); err != nil {
		slog.WarnContext(ctx, "failed to update session metadata", "session_id", sessionId, "error", err)
	}

	return &assistantMsg, nil
}

func (m *Manager) buildMessages(ctx context.Context, history []Message, content string, sourceIds []string) []generator.Message {
	msgs := []generator.Message{
		{Role: generator.RoleSystem, Content: m.options.SystemPrompt},
	}

	if m.retrieval != nil {
		opts := []retrieval.RetrieveOption{}
		if len(sourceIds) > 0 {
			opts = append(opts, retrieval.WithSources(sourceIds...))
		}

		items, err := m.retrieval.RetrieveContext(ctx, content, opts...)
		if err != nil {
			slog.WarnContext(ctx, "context retrieval failed, answering without it", "error", err)
		} else if len(items) > 0 {
			msgs = append(msgs, generator.Message{
				Role:    generator.RoleSystem,
				Content: retrieval.ContextPrompt(content, items, retrieval.DefaultMaxContextLength),
			})
		}
	}

	for _, msg := range history {
		msgs = append(msgs, generator.Message{Role: msg.Role, Content: msg.Content})
	}

	msgs = append(msgs, generator.Message{Role: generator.RoleUser, Content: content})

	return msgs
}

func NewManager(retrievalEngine *retrieval.Engine, opts ...Option) *Manager {
	options := NewOptions(opts...)

	return &Manager{
		options:   options,
		truncator: NewTruncator(opts...),
		retrieval: retrievalEngine,
	}
}
