package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"eve/pkg/logging"
)

// DefaultTokenFile is the token record location relative to the home directory.
const DefaultTokenFile = ".config/eve/token.json"

// Persister stores the single active token across process invocations.
type Persister interface {
	Load(server string) (Token, bool)
	Save(tok Token) error
	Clear() error
}

// tokenRecord is the on-disk shape of the persisted token.
type tokenRecord struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
	Server  string `json:"server"`
}

// FileStore persists one token record as JSON.
//
// SECURITY: the record holds a live bearer token.
//   - The file is created with 0600 permissions, its directory with 0700
//   - Writes go to a temporary file that is renamed over the record, so a
//     crash mid-write leaves the previous record intact
//   - Token values are never logged
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path. An empty path selects
// ~/.config/eve/token.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, DefaultTokenFile)
	}
	return &FileStore{path: path}, nil
}

// Path returns the record location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the persisted token for server. A missing, empty, malformed
// or foreign record is reported as absent.
func (s *FileStore) Load(server string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.read()
	if !ok {
		return Token{}, false
	}
	if normalizeServer(rec.Server) != normalizeServer(server) {
		logging.Debug("TokenStore", "Cached token belongs to %s, not %s", rec.Server, server)
		return Token{}, false
	}

	expires, err := parseTimestamp(rec.Expires)
	if err != nil {
		logging.Warn("TokenStore", "Ignoring token record with bad expiry: %v", err)
		return Token{}, false
	}

	// The record does not carry an issue time; the file's modification time
	// is the best approximation, clamped so the token stays well-formed.
	issued := expires.Add(-time.Second)
	if info, err := os.Stat(s.path); err == nil {
		if mt := normalizeTime(info.ModTime()); mt.Before(expires) {
			issued = mt
		}
	}

	tok, err := NewToken(rec.Token, rec.Server, issued, expires)
	if err != nil {
		return Token{}, false
	}
	return tok, true
}

// CachedServer returns the server the persisted record belongs to, or ""
// when there is no usable record.
func (s *FileStore) CachedServer() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.read()
	if !ok {
		return ""
	}
	return rec.Server
}

// read decodes the record. Callers hold s.mu.
func (s *FileStore) read() (tokenRecord, bool) {
	// #nosec G304 -- path comes from configuration, not request input
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("TokenStore", "Ignoring unreadable token record %s: %v", s.path, err)
		}
		return tokenRecord{}, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return tokenRecord{}, false
	}

	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logging.Warn("TokenStore", "Ignoring malformed token record %s", s.path)
		return tokenRecord{}, false
	}
	if rec.Token == "" || rec.Server == "" || rec.Expires == "" {
		return tokenRecord{}, false
	}
	return rec, true
}

// Save atomically replaces the persisted record with tok.
func (s *FileStore) Save(tok Token) error {
	if tok.AccessToken == "" || tok.ExpiresAt.IsZero() {
		return errors.New("refusing to persist a token without expiry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(tokenRecord{
		Token:   tok.AccessToken,
		Expires: tok.ExpiresAt.UTC().Format(TimestampLayout),
		Server:  tok.Server,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to restrict temp token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	logging.Audit("token_stored", "Bearer token persisted",
		"server", tok.Server,
		"expires", tok.ExpiresAt.Format(TimestampLayout),
		"path", s.path,
	)
	return nil
}

// Clear removes the persisted record. A missing record is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Audit("token_delete_failed", "Bearer token removal failed", "path", s.path, "error", err.Error())
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	if err == nil {
		logging.Audit("token_deleted", "Bearer token removed", "path", s.path)
	}
	return nil
}

func normalizeServer(server string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(server), "/"))
}
