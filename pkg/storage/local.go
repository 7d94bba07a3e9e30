package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDir = ".meta"

// LocalStorage implements Archive on the local filesystem. Each owner gets a
// directory holding the statement files and a .meta directory with one JSON
// document per statement.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem archive
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Store copies r into the owner directory and writes its metadata.
func (s *LocalStorage) Store(ctx context.Context, owner uuid.UUID, meta Statement, r io.Reader) (*Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New()
	ownerDir := s.ownerDir(owner)
	if err := os.MkdirAll(ownerDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create owner directory: %w", err)
	}

	storedName := fmt.Sprintf("%s_%s", id.String()[:8], sanitizeFilename(meta.Name))
	filePath := filepath.Join(ownerDir, storedName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	meta.ID = id
	meta.Size = size
	meta.Path = storedName
	meta.ArchivedAt = s.now().UTC()

	if err := s.saveMetadata(owner, &meta); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return &meta, nil
}

// Open returns the statement content. The caller closes the reader.
func (s *LocalStorage) Open(ctx context.Context, owner, id uuid.UUID) (io.ReadCloser, *Statement, error) {
	meta, err := s.info(owner, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.ownerDir(owner), meta.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, meta, nil
}

// Find returns the first statement whose fingerprint matches.
func (s *LocalStorage) Find(ctx context.Context, owner uuid.UUID, fingerprint string) (*Statement, error) {
	statements, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, st := range statements {
		if st.Fingerprint == fingerprint {
			return st, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the owner's statements, newest first. Unreadable metadata
// documents are skipped.
func (s *LocalStorage) List(ctx context.Context, owner uuid.UUID) ([]*Statement, error) {
	entries, err := os.ReadDir(filepath.Join(s.ownerDir(owner), metaDir))
	if errors.Is(err, os.ErrNotExist) {
		return []*Statement{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	statements := make([]*Statement, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		meta, err := s.info(owner, id)
		if err != nil {
			continue
		}
		statements = append(statements, meta)
	}

	sort.Slice(statements, func(i, j int) bool {
		return statements[i].ArchivedAt.After(statements[j].ArchivedAt)
	})
	return statements, nil
}

// Delete removes the statement file and its metadata.
func (s *LocalStorage) Delete(ctx context.Context, owner, id uuid.UUID) error {
	meta, err := s.info(owner, id)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.ownerDir(owner), meta.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(owner, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) info(owner, id uuid.UUID) (*Statement, error) {
	data, err := os.ReadFile(s.metaPath(owner, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Statement
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

func (s *LocalStorage) saveMetadata(owner uuid.UUID, meta *Statement) error {
	if err := os.MkdirAll(filepath.Join(s.ownerDir(owner), metaDir), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(owner, meta.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) ownerDir(owner uuid.UUID) string {
	return filepath.Join(s.basePath, owner.String())
}

func (s *LocalStorage) metaPath(owner, id uuid.UUID) string {
	return filepath.Join(s.ownerDir(owner), metaDir, id.String()+".json")
}

// sanitizeFilename removes path separators and characters Windows rejects.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	if name = replacer.Replace(strings.TrimSpace(name)); name == "" {
		return "statement"
	}
	return name
}
