package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresConfig is loaded with the POSTGRES prefix.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:chat_sessions,alias:cs"`

	SessionID string    `bun:"session_id,pk"`
	Payload   string    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunStore persists SessionState as a JSON payload in Postgres.
type BunStore struct {
	db       *bun.DB
	maxTurns int
}

var _ Store = (*BunStore)(nil)

// OpenPostgres opens a pgdriver connection wrapped in bun.
func OpenPostgres(cfg PostgresConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func NewBunStore(db *bun.DB, maxTurns int) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &BunStore{db: db, maxTurns: maxTurns}, nil
}

// CreateSchema creates the sessions table when missing.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create chat_sessions table: %w", err)
	}
	return nil
}

func (s *BunStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrInvalidSession
	}

	var row sessionRow
	err := s.db.NewSelect().
		Model(&row).
		Where("session_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("%w: select session: %v", ErrBackend, err)
	}

	var st SessionState
	if err := json.Unmarshal([]byte(row.Payload), &st); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session state loaded from store: %w", err)
	}
	return &st, nil
}

func (s *BunStore) Save(ctx context.Context, st *SessionState) error {
	if err := prepareForSave(st, s.maxTurns); err != nil {
		return err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	row := &sessionRow{
		SessionID: strings.TrimSpace(st.SessionID),
		Payload:   string(payload),
		UpdatedAt: st.UpdatedAt,
	}
	if _, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: upsert session: %v", ErrBackend, err)
	}
	return nil
}

func (s *BunStore) Delete(ctx context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}
	if _, err := s.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("session_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete session: %v", ErrBackend, err)
	}
	return nil
}
