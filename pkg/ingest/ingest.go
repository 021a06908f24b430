// Package ingest runs the CSV import workflow: an uploaded file is parsed
// and held as a pending upload, previewed with a suggested header mapping,
// then committed through a confirmed mapping into deduplicated institution
// and collection records.
//
// An upload is Uploaded until a mapping commits (Mapped) or its retention
// window passes (Expired). A failed commit leaves the upload in place so the
// caller can retry with a corrected mapping, and never leaves partial records.
//
// Example:
//
//	svc, _ := ingest.New(uploadStore, catalogStore)
//	id, _ := svc.Create(ctx, ingest.File{Name: "holdings.csv", ContentType: "text/csv", Reader: f})
//	preview, _ := svc.FindByID(ctx, id)
//	result, _ := svc.MapUpload(ctx, id, preview.SuggestedMapping)
package ingest

import (
	"context"
	"io"
	"time"

	"github.com/agentstation/collectionmap/internal/csvfile"
	"github.com/agentstation/collectionmap/internal/mapping"
)

// Service is the ingestion workflow.
type Service interface {
	// Create parses and stores an upload, returning its id. InvalidFile on parse failure.
	Create(ctx context.Context, file File) (string, error)

	// FindByID previews a pending upload. NotFound once consumed or expired.
	FindByID(ctx context.Context, id string) (*Preview, error)

	// MapUpload commits a pending upload through m and consumes it.
	// NotFound, InvalidMapping or PersistenceConflict on failure.
	MapUpload(ctx context.Context, id string, m mapping.HeaderMapping, opts ...MapOption) (*Result, error)

	// OnUploadCreated registers a callback for stored uploads.
	OnUploadCreated(UploadCreatedHook)

	// OnUploadMapped registers a callback for committed uploads.
	OnUploadMapped(UploadMappedHook)

	// OnUploadFailed registers a callback for rejected files and failed commits.
	OnUploadFailed(UploadFailedHook)

	// OnUploadExpired registers a callback for uploads reaped before being mapped.
	OnUploadExpired(UploadExpiredHook)
}

// File is an uploaded file as received from the transport.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Preview describes a pending upload for mapping.
type Preview struct {
	ID               string                `json:"id"`
	FileName         string                `json:"fileName,omitempty"`
	Headers          []string              `json:"headers"`
	SuggestedMapping mapping.HeaderMapping `json:"suggestedMapping"`
	RowCount         int                   `json:"rowCount"`
	SampleRows       [][]string            `json:"sampleRows"`
	Warnings         []csvfile.Warning     `json:"warnings"`
	CreatedAt        time.Time             `json:"createdAt"`
	ExpiresAt        time.Time             `json:"expiresAt"`
}

// Result reports a committed upload. Institutions and Collections are the
// distinct names touched, not only the ones created, in first-touch order.
type Result struct {
	UploadID            string             `json:"uploadId"`
	Institutions        []string           `json:"institutions"`
	Collections         []string           `json:"collections"`
	RowsTotal           int                `json:"rowsTotal"`
	RowsSkipped         int                `json:"rowsSkipped"`
	Skipped             []mapping.RowIssue `json:"skipped"`
	Warnings            []mapping.RowIssue `json:"warnings"`
	InstitutionsCreated int                `json:"institutionsCreated"`
	CollectionsCreated  int                `json:"collectionsCreated"`
}
