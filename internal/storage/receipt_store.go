package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptStore persists receipt attachments outside the database. Save
// returns an opaque key; Delete is idempotent and used as the compensating
// action when a submission transaction aborts after the file was written.
type ReceiptStore interface {
	Save(content []byte, originalName string) (string, error)
	Delete(key string) error
	Resolve(key string) (string, error)
}

// LocalReceiptStore stores receipts on the local filesystem under a base
// directory and refuses any key that resolves outside of it.
type LocalReceiptStore struct {
	baseDir string
	logger  *zap.Logger
}

func NewLocalReceiptStore(baseDir string, logger *zap.Logger) *LocalReceiptStore {
	return &LocalReceiptStore{baseDir: baseDir, logger: logger}
}

func (s *LocalReceiptStore) Save(content []byte, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".dat"
	}
	key := uuid.NewString() + ext

	fullPath, err := s.safePath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}

	s.logger.Debug("receipt saved",
		zap.String("key", key),
		zap.Int("size", len(content)))

	return key, nil
}

func (s *LocalReceiptStore) Delete(key string) error {
	fullPath, err := s.safePath(key)
	if err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		// Already gone, idempotent
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

// Resolve maps a key to the full on-disk path, confirming the file exists.
func (s *LocalReceiptStore) Resolve(key string) (string, error) {
	fullPath, err := s.safePath(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}

// safePath joins key onto the base directory and rejects path traversal.
func (s *LocalReceiptStore) safePath(key string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload directory: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(absBase, key))
	if err != nil {
		return "", fmt.Errorf("failed to resolve receipt path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("receipt key escapes upload directory: %s", key)
	}
	return absPath, nil
}
