package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"salesintake/internal/domain"
)

// CachedSession is what the CLI persists between invocations.
type CachedSession struct {
	Credential domain.Credential `json:"credential"`
	Principal  *domain.Principal `json:"principal,omitempty"`
}

// FileCache mirrors the credential and last known principal to a file only
// the current user can read.
type FileCache struct {
	path   string
	logger *zap.Logger
}

// NewFileCache returns a cache stored at path.
func NewFileCache(path string, logger *zap.Logger) *FileCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{path: path, logger: logger}
}

// DefaultCachePath is the per-user location of the CLI session file.
func DefaultCachePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session.DefaultCachePath: %w", err)
	}
	return filepath.Join(dir, "salesintake", "session.json"), nil
}

// Load returns the cached session; a missing file yields domain.ErrNotFound.
func (c *FileCache) Load() (*CachedSession, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("session.Load: %w", err)
	}
	var cs CachedSession
	if err := json.Unmarshal(b, &cs); err != nil {
		return nil, fmt.Errorf("session.Load: %w", err)
	}
	return &cs, nil
}

// Save writes cs atomically with 0600 permissions.
func (c *FileCache) Save(cs *CachedSession) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	b, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".session-*")
	if err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session.Save: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("session.Save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	return nil
}

// Clear removes the cached session. Clearing an absent cache is not an error.
func (c *FileCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// Track keeps the cache in step with store. A rejected credential or a
// logout clears it and an authenticated state refreshes the cached principal.
// An unauthenticated state caused by an outage or a timeout leaves the
// credential in place for the next attempt.
func (c *FileCache) Track(store *Store, cred domain.Credential) func() {
	return store.Subscribe(func(st domain.SessionState) {
		switch {
		case st.Status == domain.SessionUnauthenticated && st.Rejected:
			if err := c.Clear(); err != nil {
				c.logger.Warn("session.Track: failed to clear cached session", zap.String("path", c.path), zap.Error(err))
			}
		case st.Status == domain.SessionAuthenticated:
			if err := c.Save(&CachedSession{Credential: cred, Principal: st.Principal}); err != nil {
				c.logger.Warn("session.Track: failed to save cached session", zap.String("path", c.path), zap.Error(err))
			}
		}
	})
}
