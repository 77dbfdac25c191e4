package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"athena/internal/cache"
	applog "athena/internal/log"

	_ "modernc.org/sqlite"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session binds a browser cookie to the token the Athena API issued at login.
type Session struct {
	ID        string
	APIToken  string
	UserName  string
	UserEmail string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions in SQLite with an in-process read-through cache.
type SessionStore struct {
	db    *sql.DB
	ttl   time.Duration
	cache *cache.LRUCache[Session]
	now   func() time.Time
}

// NewSessionStore opens (or creates) the database at dbPath and applies migrations.
func NewSessionStore(dbPath string, ttl time.Duration) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SessionStore{
		db:    db,
		ttl:   ttl,
		cache: cache.NewLRUCache[Session](1024, 5*time.Minute),
		now:   time.Now,
	}, nil
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Cache exposes the read-through cache so it can be registered for cleanup.
func (s *SessionStore) Cache() *cache.LRUCache[Session] { return s.cache }

// Ping checks the database connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create stores a new session for the given API token.
func (s *SessionStore) Create(ctx context.Context, apiToken, name, email string) (Session, error) {
	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		APIToken:  apiToken,
		UserName:  name,
		UserEmail: email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, api_token, user_name, user_email, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.APIToken, sess.UserName, sess.UserEmail, sess.CreatedAt.Unix(), sess.ExpiresAt.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	s.cache.SetUntil(sess.ID, sess, sess.ExpiresAt)
	slog.DebugContext(ctx, "Session created", applog.FieldComponent, applog.ComponentSession, applog.FieldSessionID, sess.ID, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Get returns a live session. Expired sessions are deleted and reported as
// ErrSessionExpired.
func (s *SessionStore) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}
	now := s.now()

	if sess, ok := s.cache.Get(id); ok && !sess.Expired(now) {
		return sess, nil
	}

	var (
		sess               Session
		created, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, api_token, user_name, user_email, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.APIToken, &sess.UserName, &sess.UserEmail, &created, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session: %w", err)
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	if sess.Expired(now) {
		if err := s.Delete(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", applog.FieldComponent, applog.ComponentSession, applog.FieldSessionID, id, applog.FieldError, err)
		}
		return Session{}, ErrSessionExpired
	}

	s.cache.SetUntil(sess.ID, sess, sess.ExpiresAt)
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.cache.Delete(id)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes every expired session and returns how many were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	s.cache.CleanExpired()
	return n, nil
}
