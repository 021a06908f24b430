// Package uploads holds parsed CSV uploads between upload and header mapping.
//
// An upload is immutable once stored. It is removed when a mapping is
// committed against it and independently reaped once its retention window
// has passed, so a commit racing expiry sees NotFound and writes nothing.
package uploads

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/collectionmap/internal/csvfile"
)

// Upload is a parsed, unconfirmed CSV file.
type Upload struct {
	ID        string            `json:"id" bson:"_id"`
	FileName  string            `json:"fileName" bson:"fileName"`
	Headers   []string          `json:"headers" bson:"headers"`
	Rows      [][]string        `json:"rows" bson:"rows"` // index-aligned with Headers
	Warnings  []csvfile.Warning `json:"warnings,omitempty" bson:"warnings,omitempty"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt" bson:"expiresAt"`
}

// FromFile builds an unsaved upload from a parsed file.
func FromFile(f *csvfile.File) *Upload {
	return &Upload{
		FileName: f.Name,
		Headers:  f.Headers,
		Rows:     f.Rows,
		Warnings: f.Warnings,
	}
}

// Store keeps uploads until they are consumed or expire.
// Returned uploads are shared and must not be modified.
type Store interface {
	// Create assigns an id, creation and expiry times, stores u and returns the id.
	Create(ctx context.Context, u *Upload) (string, error)

	// Get returns the upload or NotFound once it expired or was consumed.
	Get(ctx context.Context, id string) (*Upload, error)

	// Delete consumes the upload. NotFound when it is already gone.
	Delete(ctx context.Context, id string) error

	// Len counts live uploads.
	Len(ctx context.Context) (int, error)

	// Close stops background reaping.
	Close(ctx context.Context) error
}

// ExpiredFunc is called after the reaper removes an upload that was never consumed.
type ExpiredFunc func(u *Upload)

func newID() string {
	return uuid.New().String()
}

// stamp returns a shallow copy of u with id and lifecycle times set.
func stamp(u *Upload, now time.Time, retention time.Duration) *Upload {
	c := *u
	c.ID = newID()
	c.CreatedAt = now.UTC()
	c.ExpiresAt = c.CreatedAt.Add(retention)
	return &c
}
