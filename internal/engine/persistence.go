package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/vault"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

const userFileExt = ".json"

// Persistence handles the disk I/O for the MemStore: one file per user.
type Persistence struct {
	DataDir string
	sealer  *vault.Sealer
	logger  *zap.Logger
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewPersistence initializes a persistence handler. A non-nil sealer encrypts files at rest.
func NewPersistence(dir string, sealer *vault.Sealer, logger *zap.Logger) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persistence{
		DataDir: dir,
		sealer:  sealer,
		logger:  logger.With(zap.String("component", "Persistence")),
	}, nil
}

// userFile maps a user id to a file inside DataDir; escaping keeps path separators out of the name.
func (p *Persistence) userFile(userID string) string {
	return filepath.Join(p.DataDir, url.PathEscape(userID)+userFileExt)
}

// SaveUser writes a single user's records atomically. An empty map removes the user's file.
func (p *Persistence) SaveUser(userID string, data map[string]schema.UserAPIRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := p.userFile(userID)
	if len(data) == 0 {
		if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if p.sealer != nil {
		if content, err = p.sealer.Seal(content); err != nil {
			return fmt.Errorf("failed to seal records of %s: %w", userID, err)
		}
	}

	// Write to a temporary file first, then rename over the old one.
	// A crash leaves either the old file or the new one, never a torn write.
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o600); err != nil {
		p.removeTemp(tempPath)
		return err
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		p.removeTemp(tempPath)
		return err
	}
	return nil
}

func (p *Persistence) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("Could not remove temporary file", zap.String("file", path), zap.Error(err))
	}
}

// LoadAll returns all user records found in the data directory.
// Unreadable files are skipped with a warning.
func (p *Persistence) LoadAll() (map[string]map[string]schema.UserAPIRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[string]schema.UserAPIRecord)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != userFileExt {
			continue
		}
		userID, err := url.PathUnescape(strings.TrimSuffix(file.Name(), userFileExt))
		if err != nil {
			p.logger.Warn("Skipping file with malformed name", zap.String("file", file.Name()))
			continue
		}

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			p.logger.Warn("Could not read user file", zap.String("file", file.Name()), zap.Error(err))
			continue
		}
		if p.sealer != nil {
			if content, err = p.sealer.Open(content); err != nil {
				p.logger.Warn("Could not open sealed user file", zap.String("file", file.Name()), zap.Error(err))
				continue
			}
		}

		var userData map[string]schema.UserAPIRecord
		if err := json.Unmarshal(content, &userData); err != nil {
			p.logger.Warn("Could not unmarshal user records", zap.String("file", file.Name()), zap.Error(err))
			continue
		}
		allData[userID] = userData
	}
	return allData, nil
}
