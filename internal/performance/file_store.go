package performance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON array per user in
// <dir>/<user_id>_flashcard_performance.json. Callers serialize writers for
// the same user; the file is replaced atomically so readers never see a
// partial write.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, userID+"_flashcard_performance.json")
}

func (s *FileStore) Load(_ context.Context, userID string) ([]Record, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read performance log: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLog, err)
	}
	return records, nil
}

func (s *FileStore) Append(ctx context.Context, userID string, rec Record) (AppendResult, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return AppendResult{}, fmt.Errorf("failed to create data directory: %w", err)
	}

	var result AppendResult
	records, err := s.Load(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrCorruptLog) {
			return AppendResult{}, err
		}
		records, result.Reset = nil, true
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return AppendResult{}, fmt.Errorf("failed to encode performance log: %w", err)
	}
	if err := writeFileAtomic(s.path(userID), data); err != nil {
		return AppendResult{}, err
	}

	result.Total = len(records)
	return result, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".perf-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write performance log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close performance log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace performance log: %w", err)
	}
	return nil
}
