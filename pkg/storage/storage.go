// Package storage archives imported bank statements on disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("statement not found")

// Statement describes an archived statement file and the import it fed.
type Statement struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // relative to the owner directory
	Fingerprint string    `json:"fingerprint"`
	Bank        string    `json:"bank"`
	Format      string    `json:"format"`
	Parsed      int       `json:"parsed"`
	Added       int       `json:"added"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// Archive stores statements grouped per owner.
type Archive interface {
	// Store copies r into the archive. Name, ContentType, Fingerprint, Bank,
	// Format, Parsed and Added are taken from meta; the rest is filled in.
	Store(ctx context.Context, owner uuid.UUID, meta Statement, r io.Reader) (*Statement, error)

	// Open returns the statement content.
	Open(ctx context.Context, owner, id uuid.UUID) (io.ReadCloser, *Statement, error)

	// Find returns the first archived statement with the given fingerprint.
	Find(ctx context.Context, owner uuid.UUID, fingerprint string) (*Statement, error)

	// List returns the owner's statements, newest first.
	List(ctx context.Context, owner uuid.UUID) ([]*Statement, error)

	Delete(ctx context.Context, owner, id uuid.UUID) error
}
