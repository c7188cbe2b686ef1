package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/dailylesson/lessonmail/pkg/domain"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteConfig represents database configuration
type SQLiteConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SQLite keeps the state in three tables. Save replaces all of them in one transaction.
type SQLite struct {
	db *sqlx.DB
}

type subscriberRow struct {
	ID               int64     `db:"id"`
	Email            string    `db:"email"`
	Level            string    `db:"level"`
	Language         string    `db:"language"`
	Topics           string    `db:"topics"`
	Timezone         string    `db:"timezone"`
	Active           bool      `db:"active"`
	UnsubscribeToken string    `db:"unsubscribe_token"`
	CreatedAt        time.Time `db:"created_at"`
}

type topicRow struct {
	Position       int    `db:"position"`
	ID             string `db:"id"`
	Category       string `db:"category"`
	Title          string `db:"title"`
	ZhTitle        string `db:"zh_title"`
	PromptTemplate string `db:"prompt_template"`
}

type logRow struct {
	ID           int64          `db:"id"`
	SubscriberID int64          `db:"subscriber_id"`
	TopicID      string         `db:"topic_id"`
	Script       sql.NullString `db:"script"`
	SentAt       time.Time      `db:"sent_at"`
	Status       string         `db:"status"`
	Error        string         `db:"error"`
}

// NewSQLite opens the database, applies pragmas and creates tables
func NewSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:lessonmail.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads all three tables
func (s *SQLite) Load(ctx context.Context) (State, error) {
	var (
		subs   []subscriberRow
		topics []topicRow
		logs   []logRow
		st     State
	)

	if err := s.db.SelectContext(ctx, &subs, "SELECT * FROM subscribers ORDER BY id"); err != nil {
		return State{}, fmt.Errorf("select subscribers: %w", err)
	}
	if err := s.db.SelectContext(ctx, &topics, "SELECT * FROM topics ORDER BY position"); err != nil {
		return State{}, fmt.Errorf("select topics: %w", err)
	}
	if err := s.db.SelectContext(ctx, &logs, "SELECT * FROM email_logs ORDER BY id"); err != nil {
		return State{}, fmt.Errorf("select email logs: %w", err)
	}

	for _, r := range subs {
		st.Subscribers = append(st.Subscribers, domain.Subscriber{
			ID: r.ID, Email: r.Email, Level: domain.Level(r.Level), Language: domain.Language(r.Language),
			Topics: r.Topics, Timezone: r.Timezone, Active: r.Active, UnsubscribeToken: r.UnsubscribeToken,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	for _, r := range topics {
		st.Topics = append(st.Topics, domain.Topic{
			ID: r.ID, Category: r.Category, Title: r.Title, ZhTitle: r.ZhTitle, PromptTemplate: r.PromptTemplate,
		})
	}
	for _, r := range logs {
		entry := domain.DeliveryLogEntry{
			ID: r.ID, SubscriberID: r.SubscriberID, TopicID: r.TopicID, SentAt: r.SentAt.UTC(),
			Status: domain.DeliveryStatus(r.Status), Error: r.Error,
		}
		if r.Script.Valid && r.Script.String != "" {
			var script domain.LessonScript
			if err := json.Unmarshal([]byte(r.Script.String), &script); err != nil {
				return State{}, fmt.Errorf("parse script of log entry %d: %w", r.ID, err)
			}
			entry.Script = &script
		}
		st.EmailLogs = append(st.EmailLogs, entry)
	}
	return st, nil
}

// Save replaces all tables with the state. Lock errors are retried, anything else stops the retry.
func (s *SQLite) Save(ctx context.Context, st State) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		err := s.inTransaction(ctx, func(tx *sqlx.Tx) error { return replaceAll(ctx, tx, st) })
		if err != nil && !isLockError(err) {
			return &criticalError{err: fmt.Errorf("save state: %w", err)}
		}
		return err
	}, errCritical)
}

func replaceAll(ctx context.Context, tx *sqlx.Tx, st State) error {
	for _, table := range []string{"subscribers", "topics", "email_logs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, sub := range st.Subscribers {
		row := subscriberRow{
			ID: sub.ID, Email: sub.Email, Level: string(sub.Level), Language: string(sub.Language),
			Topics: sub.Topics, Timezone: sub.Timezone, Active: sub.Active, UnsubscribeToken: sub.UnsubscribeToken,
			CreatedAt: sub.CreatedAt.UTC(),
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO subscribers
			(id, email, level, language, topics, timezone, active, unsubscribe_token, created_at)
			VALUES (:id, :email, :level, :language, :topics, :timezone, :active, :unsubscribe_token, :created_at)`, row); err != nil {
			return fmt.Errorf("insert subscriber %d: %w", sub.ID, err)
		}
	}

	for i, t := range st.Topics {
		row := topicRow{Position: i + 1, ID: t.ID, Category: t.Category, Title: t.Title, ZhTitle: t.ZhTitle, PromptTemplate: t.PromptTemplate}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO topics (position, id, category, title, zh_title, prompt_template)
			VALUES (:position, :id, :category, :title, :zh_title, :prompt_template)`, row); err != nil {
			return fmt.Errorf("insert topic %s: %w", t.ID, err)
		}
	}

	for _, l := range st.EmailLogs {
		row := logRow{ID: l.ID, SubscriberID: l.SubscriberID, TopicID: l.TopicID, SentAt: l.SentAt.UTC(),
			Status: string(l.Status), Error: l.Error}
		if l.Script != nil {
			data, err := json.Marshal(l.Script)
			if err != nil {
				return fmt.Errorf("marshal script of log entry %d: %w", l.ID, err)
			}
			row.Script = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO email_logs (id, subscriber_id, topic_id, script, sent_at, status, error)
			VALUES (:id, :subscriber_id, :topic_id, :script, :sent_at, :status, :error)`, row); err != nil {
			return fmt.Errorf("insert log entry %d: %w", l.ID, err)
		}
	}
	return nil
}

// inTransaction executes a function within a database transaction
func (s *SQLite) inTransaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback also failed: %s)", err, rbErr.Error())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// errCritical matches criticalError and stops the repeater
var errCritical = errors.New("critical error")

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

func (e *criticalError) Is(target error) bool { return target == errCritical }

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
