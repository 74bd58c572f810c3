package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/stackmesh/template-agent/pkg/logger"
)

const (
	defaultMaxConns       = 20
	defaultMinConns       = 2
	defaultConnectTimeout = 5 * time.Second
	defaultPingTimeout    = 3 * time.Second
)

// DBInterface is the minimal query surface needed by the saver. Both a real
// pgxpool.Pool and pgxmock.PgxPoolIface satisfy it.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSaver is the database-backed checkpoint/store backend. It does not
// leak pgx types through its public API.
type PostgresSaver struct {
	db   DBInterface
	pool *pgxpool.Pool
}

// NewPostgresSaver wraps an existing query surface. Used by Connect and by
// tests with a mocked pool.
func NewPostgresSaver(db DBInterface) *PostgresSaver {
	return &PostgresSaver{db: db}
}

// Connect opens a pooled connection using the derived connection string and
// verifies it with a bounded ping. The caller owns the returned saver and
// must Close it when the session ends.
func Connect(ctx context.Context, connString string) (*PostgresSaver, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns = defaultMaxConns
	poolCfg.MinConns = defaultMinConns
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	saver := NewPostgresSaver(pool)
	saver.pool = pool
	return saver, nil
}

// Close releases the underlying pool. Safe to call on a saver constructed
// without one.
func (s *PostgresSaver) Close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
		logger.FromContext(ctx).Debug("Postgres saver closed")
	}
	return nil
}

func (s *PostgresSaver) History(sessionID string) schema.ChatMessageHistory {
	return &postgresHistory{db: s.db, sessionID: sessionID}
}

func (s *PostgresSaver) Put(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO kv_store (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, key) DO UPDATE SET value = $3, updated_at = now()`,
		namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres: put %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresSaver) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// postgresHistory is the per-session conversation checkpoint.
type postgresHistory struct {
	db        DBInterface
	sessionID string
}

func (h *postgresHistory) AddMessage(ctx context.Context, message llms.ChatMessage) error {
	_, err := h.db.Exec(ctx,
		`INSERT INTO checkpoints (session_id, role, content) VALUES ($1, $2, $3)`,
		h.sessionID, string(message.GetType()), message.GetContent(),
	)
	if err != nil {
		return fmt.Errorf("postgres: add message: %w", err)
	}
	return nil
}

func (h *postgresHistory) AddUserMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, llms.HumanChatMessage{Content: text})
}

func (h *postgresHistory) AddAIMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, llms.AIChatMessage{Content: text})
}

func (h *postgresHistory) Clear(ctx context.Context) error {
	_, err := h.db.Exec(ctx, `DELETE FROM checkpoints WHERE session_id = $1`, h.sessionID)
	if err != nil {
		return fmt.Errorf("postgres: clear history: %w", err)
	}
	return nil
}

func (h *postgresHistory) Messages(ctx context.Context) ([]llms.ChatMessage, error) {
	rows, err := h.db.Query(ctx,
		`SELECT role, content FROM checkpoints WHERE session_id = $1 ORDER BY id`,
		h.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load history: %w", err)
	}
	defer rows.Close()

	var messages []llms.ChatMessage
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		messages = append(messages, messageFromRow(role, content))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate history: %w", err)
	}
	return messages, nil
}

func (h *postgresHistory) SetMessages(ctx context.Context, messages []llms.ChatMessage) error {
	if err := h.Clear(ctx); err != nil {
		return err
	}
	for _, message := range messages {
		if err := h.AddMessage(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

func messageFromRow(role, content string) llms.ChatMessage {
	switch llms.ChatMessageType(role) {
	case llms.ChatMessageTypeAI:
		return llms.AIChatMessage{Content: content}
	case llms.ChatMessageTypeHuman:
		return llms.HumanChatMessage{Content: content}
	case llms.ChatMessageTypeSystem:
		return llms.SystemChatMessage{Content: content}
	case llms.ChatMessageTypeTool:
		return llms.ToolChatMessage{Content: content}
	default:
		return llms.GenericChatMessage{Role: role, Content: content}
	}
}
