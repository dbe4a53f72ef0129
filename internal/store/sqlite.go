package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- token subject
        role TEXT NOT NULL CHECK (role IN ('student', 'company', 'admin')),
        display_name TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS student_profiles (
        user_id TEXT PRIMARY KEY,
        resume_text TEXT NOT NULL,
        updated_at DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS internships (
        id TEXT PRIMARY KEY, -- UUID
        company_id TEXT NOT NULL,
        title TEXT NOT NULL,
        description TEXT NOT NULL,
        requirements TEXT NOT NULL DEFAULT '',
        location TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
        created_at DATETIME NOT NULL,
        FOREIGN KEY (company_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS idx_internships_company ON internships (company_id);

    CREATE TABLE IF NOT EXISTS applications (
        id TEXT PRIMARY KEY, -- UUID
        internship_id TEXT NOT NULL,
        student_id TEXT NOT NULL,
        status TEXT NOT NULL DEFAULT 'pending',
        created_at DATETIME NOT NULL,
        UNIQUE (internship_id, student_id),
        FOREIGN KEY (internship_id) REFERENCES internships (id),
        FOREIGN KEY (student_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS idx_applications_student ON applications (student_id);

    CREATE TABLE IF NOT EXISTS embeddings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        owner_type TEXT NOT NULL CHECK (owner_type IN ('internship_description', 'student_resume')),
        owner_id TEXT NOT NULL,
        chunk_index INTEGER NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT NOT NULL, -- JSON array of float32
        version INTEGER NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_embeddings_owner ON embeddings (owner_type, owner_id, version);

    CREATE TABLE IF NOT EXISTS topics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        name_key TEXT NOT NULL UNIQUE, -- lower(name)
        slug TEXT NOT NULL,
        category TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        follower_count INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS internship_topics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        internship_id TEXT NOT NULL,
        topic_id INTEGER NOT NULL,
        relevance_score REAL NOT NULL,
        FOREIGN KEY (internship_id) REFERENCES internships (id),
        FOREIGN KEY (topic_id) REFERENCES topics (id)
    );
    CREATE INDEX IF NOT EXISTS idx_internship_topics_internship ON internship_topics (internship_id);

    CREATE TABLE IF NOT EXISTS topic_followers (
        topic_id INTEGER NOT NULL,
        user_id TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (topic_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS company_followers (
        company_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (company_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS notifications (
        id TEXT PRIMARY KEY, -- UUID
        recipient_id TEXT NOT NULL,
        kind TEXT NOT NULL,
        payload TEXT NOT NULL, -- JSON
        is_read BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// placeholders returns "?, ?, ..." with n markers and the ids as arguments.
func placeholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}
