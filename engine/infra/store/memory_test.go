package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestGlobal(t *testing.T) {
	t.Run("Should return the same instance on every call", func(t *testing.T) {
		first := Global()
		second := Global()

		assert.Same(t, first, second)
	})

	t.Run("Should share state across sessions obtained from it", func(t *testing.T) {
		saver := Global()
		ctx := t.Context()

		require.NoError(t, saver.Put(ctx, "sessions", "shared", []byte("yes")))

		value, err := Global().Get(ctx, "sessions", "shared")
		require.NoError(t, err)
		assert.Equal(t, []byte("yes"), value)
	})
}

func TestMemorySaver_History(t *testing.T) {
	t.Run("Should record and return messages in order", func(t *testing.T) {
		saver := NewMemorySaver()
		ctx := t.Context()
		history := saver.History("session-1")

		require.NoError(t, history.AddUserMessage(ctx, "hello"))
		require.NoError(t, history.AddAIMessage(ctx, "hi there"))

		messages, err := history.Messages(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, llms.ChatMessageTypeHuman, messages[0].GetType())
		assert.Equal(t, "hello", messages[0].GetContent())
		assert.Equal(t, llms.ChatMessageTypeAI, messages[1].GetType())
	})

	t.Run("Should isolate sessions", func(t *testing.T) {
		saver := NewMemorySaver()
		ctx := t.Context()

		require.NoError(t, saver.History("a").AddUserMessage(ctx, "for a"))

		messages, err := saver.History("b").Messages(ctx)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("Should clear a session", func(t *testing.T) {
		saver := NewMemorySaver()
		ctx := t.Context()
		history := saver.History("session-1")
		require.NoError(t, history.AddUserMessage(ctx, "hello"))

		require.NoError(t, history.Clear(ctx))

		messages, err := history.Messages(ctx)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("Should replace messages with SetMessages", func(t *testing.T) {
		saver := NewMemorySaver()
		ctx := t.Context()
		history := saver.History("session-1")
		require.NoError(t, history.AddUserMessage(ctx, "old"))

		require.NoError(t, history.SetMessages(ctx, []llms.ChatMessage{
			llms.SystemChatMessage{Content: "rewritten"},
		}))

		messages, err := history.Messages(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].GetType())
	})

	t.Run("Should tolerate concurrent writers", func(t *testing.T) {
		saver := NewMemorySaver()
		ctx := t.Context()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = saver.History("shared").AddUserMessage(ctx, "msg")
			}()
		}
		wg.Wait()

		messages, err := saver.History("shared").Messages(ctx)
		require.NoError(t, err)
		assert.Len(t, messages, 16)
	})
}

func TestMemorySaver_KV(t *testing.T) {
	t.Run("Should return ErrNotFound for missing keys", func(t *testing.T) {
		saver := NewMemorySaver()

		_, err := saver.Get(t.Context(), "ns", "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should replace existing values", func(t *testing.T) {
		saver := NewMemorySaver()
		ctx := t.Context()
		require.NoError(t, saver.Put(ctx, "ns", "k", []byte("v1")))
		require.NoError(t, saver.Put(ctx, "ns", "k", []byte("v2")))

		value, err := saver.Get(ctx, "ns", "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), value)
	})
}
