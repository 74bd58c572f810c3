package store

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var (
	globalSaver *MemorySaver
	globalOnce  sync.Once
)

// Global returns the process-wide in-memory saver used in local development
// mode. It is created once and shared across all sessions; concurrent
// sessions see each other's state by design.
func Global() *MemorySaver {
	globalOnce.Do(func() {
		globalSaver = NewMemorySaver()
	})
	return globalSaver
}

// MemorySaver keeps checkpoints and key-value data in process memory. It
// implements Saver with no schema-setup capability.
type MemorySaver struct {
	mu        sync.RWMutex
	histories map[string][]llms.ChatMessage
	kv        map[string]map[string][]byte
}

func NewMemorySaver() *MemorySaver {
	return &MemorySaver{
		histories: make(map[string][]llms.ChatMessage),
		kv:        make(map[string]map[string][]byte),
	}
}

func (s *MemorySaver) History(sessionID string) schema.ChatMessageHistory {
	return &memoryHistory{saver: s, sessionID: sessionID}
}

func (s *MemorySaver) Put(_ context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.kv[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.kv[namespace] = ns
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	ns[key] = copied
	return nil
}

func (s *MemorySaver) Get(_ context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.kv[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// memoryHistory is the per-session view over the shared saver.
type memoryHistory struct {
	saver     *MemorySaver
	sessionID string
}

func (h *memoryHistory) AddMessage(_ context.Context, message llms.ChatMessage) error {
	h.saver.mu.Lock()
	defer h.saver.mu.Unlock()
	h.saver.histories[h.sessionID] = append(h.saver.histories[h.sessionID], message)
	return nil
}

func (h *memoryHistory) AddUserMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, llms.HumanChatMessage{Content: text})
}

func (h *memoryHistory) AddAIMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, llms.AIChatMessage{Content: text})
}

func (h *memoryHistory) Clear(_ context.Context) error {
	h.saver.mu.Lock()
	defer h.saver.mu.Unlock()
	delete(h.saver.histories, h.sessionID)
	return nil
}

func (h *memoryHistory) Messages(_ context.Context) ([]llms.ChatMessage, error) {
	h.saver.mu.RLock()
	defer h.saver.mu.RUnlock()
	stored := h.saver.histories[h.sessionID]
	messages := make([]llms.ChatMessage, len(stored))
	copy(messages, stored)
	return messages, nil
}

func (h *memoryHistory) SetMessages(_ context.Context, messages []llms.ChatMessage) error {
	h.saver.mu.Lock()
	defer h.saver.mu.Unlock()
	copied := make([]llms.ChatMessage, len(messages))
	copy(copied, messages)
	h.saver.histories[h.sessionID] = copied
	return nil
}
