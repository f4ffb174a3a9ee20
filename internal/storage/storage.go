// Package storage provides the media store backing the studio's session
// history: generated videos, extracted downloads, and their metadata.
// It defines the Store port and implementations for local disk and S3.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a media entry does not exist.
var ErrNotFound = errors.New("storage: media entry not found")

// ErrObjectTooLarge is returned when a single object exceeds the whole
// store quota and therefore cannot be admitted at all.
var ErrObjectTooLarge = errors.New("storage: object larger than store quota")

// MediaType categorizes stored media.
type MediaType string

const (
	TypeVideo MediaType = "video"
	TypeImage MediaType = "image"
	TypeAudio MediaType = "audio"
)

// Entry describes one stored media object.
type Entry struct {
	// Key is the unique store key.
	Key string `json:"key"`
	// Type categorizes the media.
	Type MediaType `json:"type"`
	// Name is a human-readable name, e.g. the prompt or source title.
	Name string `json:"name,omitempty"`
	// ContentType is the MIME type of the data.
	ContentType string `json:"contentType,omitempty"`
	// Size is the object size in bytes.
	Size int64 `json:"size"`
	// URL is an external URL for the object, set when it was uploaded
	// to remote storage.
	URL string `json:"url,omitempty"`
	// SourceID links the entry back to the prediction or download that
	// produced it.
	SourceID string `json:"sourceId,omitempty"`
	// CreatedAt orders entries for quota eviction.
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the media key-value collaborator. Writes that would exceed the
// store quota must degrade gracefully by evicting the oldest entries
// rather than failing.
type Store interface {
	// Put stores the data under entry.Key and returns the completed entry.
	Put(ctx context.Context, entry Entry, data io.Reader) (Entry, error)

	// Get returns the entry and a reader over its data.
	// The caller closes the reader.
	Get(ctx context.Context, key string) (Entry, io.ReadCloser, error)

	// Delete removes an entry. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, key string) error

	// ListByType returns all entries of the given type, newest first.
	// An empty type returns every entry.
	ListByType(ctx context.Context, t MediaType) ([]Entry, error)
}

// Uploader pushes a stored object to remote storage and returns its
// public URL. Implemented by S3Store; absent in local-only deployments.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)
}
