// Package store is the SQLite-backed persistence layer: the document
// registry, user credentials and API tokens, and the inference audit log.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"aeroassist/internal/domain"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match a registered user.
var ErrInvalidCredentials = errors.New("invalid credentials")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                   TEXT PRIMARY KEY,
	file_name            TEXT NOT NULL,
	file_hash            TEXT NOT NULL UNIQUE,
	file_size            INTEGER NOT NULL,
	file_modification_ts INTEGER NOT NULL,
	created_on           INTEGER NOT NULL,
	last_modified_on     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_file_name ON documents(file_name);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_on    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	created_on INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS inference_log (
	id         TEXT PRIMARY KEY,
	username   TEXT,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	created_on INTEGER NOT NULL
);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// UpsertDocument registers a document or refreshes its metadata when the
// file hash is already known.
func (s *Store) UpsertDocument(ctx context.Context, rec domain.DocumentRecord) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, file_name, file_hash, file_size, file_modification_ts, created_on, last_modified_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_hash) DO UPDATE SET
			file_size = excluded.file_size,
			file_modification_ts = excluded.file_modification_ts,
			last_modified_on = excluded.last_modified_on`,
		uuid.NewString(), rec.FileName, rec.FileHash, rec.FileSize, rec.FileModificationTS, now, now)
	return err
}

// DocumentByHash returns the registered document for a file hash, or nil if
// none is known.
func (s *Store) DocumentByHash(ctx context.Context, fileHash string) (*domain.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_hash, file_size, file_modification_ts
		FROM documents WHERE file_hash = ?`, fileHash)
	var rec domain.DocumentRecord
	err := row.Scan(&rec.ID, &rec.FileName, &rec.FileHash, &rec.FileSize, &rec.FileModificationTS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SearchDocuments matches registered documents by file name substring.
func (s *Store) SearchDocuments(ctx context.Context, query string) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, file_hash, file_size, file_modification_ts
		FROM documents
		WHERE file_name LIKE '%' || ? || '%'
		ORDER BY file_name`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.DocumentRecord
	for rows.Next() {
		var rec domain.DocumentRecord
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.FileHash, &rec.FileSize, &rec.FileModificationTS); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateUser registers a user with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_on) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), username, string(hash), time.Now().Unix())
	return err
}

// Authenticate verifies the credentials and issues a fresh bearer token.
func (s *Store) Authenticate(ctx context.Context, username, password string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE username = ?`, username)
	var userID, passwordHash string
	err := row.Scan(&userID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tokens (token, user_id, created_on) VALUES (?, ?, ?)`,
		token, userID, time.Now().Unix())
	if err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken resolves a bearer token to the username it was issued to.
func (s *Store) VerifyToken(ctx context.Context, token string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.username FROM tokens t JOIN users u ON u.id = t.user_id WHERE t.token = ?`, token)
	var username string
	err := row.Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return username, true, nil
}

// LogInference appends an audit record of one inference request and its
// result, both stored verbatim as JSON.
func (s *Store) LogInference(ctx context.Context, username string, input []domain.InferenceInteraction, output domain.InferenceResult) error {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return err
	}
	outputJSON, err := json.Marshal(output)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inference_log (id, username, input, output, created_on) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), username, string(inputJSON), string(outputJSON), time.Now().Unix())
	return err
}

// generateToken returns a url-safe random token.
func generateToken() (string, error) {
	raw := make([]byte, 45)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
