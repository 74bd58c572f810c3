package store_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/stackmesh/template-agent/engine/infra/store"
)

// mockDB adapts pgxmock.PgxPoolIface to store.DBInterface.
type mockDB struct {
	mockPool pgxmock.PgxPoolIface
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return m.mockPool.Exec(ctx, sql, arguments...)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.mockPool.Query(ctx, sql, args...)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.mockPool.QueryRow(ctx, sql, args...)
}

func newMockSaver(t *testing.T) (*store.PostgresSaver, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return store.NewPostgresSaver(&mockDB{mockPool: mockPool}), mockPool
}

func TestPostgresSaver_History(t *testing.T) {
	t.Run("Should insert messages with session scoping", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)
		history := saver.History("session-1")

		mockPool.ExpectExec("INSERT INTO checkpoints").
			WithArgs("session-1", string(llms.ChatMessageTypeHuman), "hello").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, history.AddUserMessage(t.Context(), "hello"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should load messages in insertion order", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)
		history := saver.History("session-1")

		mockPool.ExpectQuery("SELECT role, content FROM checkpoints").
			WithArgs("session-1").
			WillReturnRows(pgxmock.NewRows([]string{"role", "content"}).
				AddRow("human", "hello").
				AddRow("ai", "hi there").
				AddRow("custom", "something else"))

		messages, err := history.Messages(t.Context())

		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, llms.ChatMessageTypeHuman, messages[0].GetType())
		assert.Equal(t, llms.ChatMessageTypeAI, messages[1].GetType())
		assert.Equal(t, llms.ChatMessageTypeGeneric, messages[2].GetType())
		assert.Equal(t, "something else", messages[2].GetContent())
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should clear only its own session", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)
		history := saver.History("session-1")

		mockPool.ExpectExec("DELETE FROM checkpoints").
			WithArgs("session-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		require.NoError(t, history.Clear(t.Context()))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should rewrite history with SetMessages", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)
		history := saver.History("session-1")

		mockPool.ExpectExec("DELETE FROM checkpoints").
			WithArgs("session-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectExec("INSERT INTO checkpoints").
			WithArgs("session-1", string(llms.ChatMessageTypeSystem), "prompt").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := history.SetMessages(t.Context(), []llms.ChatMessage{
			llms.SystemChatMessage{Content: "prompt"},
		})

		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresSaver_KV(t *testing.T) {
	t.Run("Should upsert values", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)

		mockPool.ExpectExec("INSERT INTO kv_store").
			WithArgs("sessions", "last_seen", []byte("now")).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, saver.Put(t.Context(), "sessions", "last_seen", []byte("now")))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return stored value", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)

		mockPool.ExpectQuery("SELECT value FROM kv_store").
			WithArgs("sessions", "last_seen").
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte("now")))

		value, err := saver.Get(t.Context(), "sessions", "last_seen")

		require.NoError(t, err)
		assert.Equal(t, []byte("now"), value)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should map missing rows to ErrNotFound", func(t *testing.T) {
		saver, mockPool := newMockSaver(t)

		mockPool.ExpectQuery("SELECT value FROM kv_store").
			WithArgs("sessions", "missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := saver.Get(t.Context(), "sessions", "missing")

		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPostgresSaver_Setup(t *testing.T) {
	t.Run("Should refuse setup without a pooled connection", func(t *testing.T) {
		saver, _ := newMockSaver(t)

		err := saver.Setup(t.Context())

		assert.Error(t, err)
	})
}
