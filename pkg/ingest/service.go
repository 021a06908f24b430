package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/internal/csvfile"
	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/internal/resolve"
	"github.com/agentstation/collectionmap/internal/uploads"
	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/logging"
)

// errInFlight is wrapped into the conflict returned for a concurrent commit.
var errInFlight = errors.New("a mapping for this upload is already being committed")

type service struct {
	*hooks
	config   *config
	uploads  uploads.Store
	resolver *resolve.Resolver
	inflight sync.Map // upload id -> struct{}
}

// New creates a Service on the given stores. When the upload store can
// report reaped uploads, its callback is wired to OnUploadExpired hooks.
func New(uploadStore uploads.Store, catalogStore catalog.Store, opts ...Option) (Service, error) {
	if uploadStore == nil || catalogStore == nil {
		return nil, pkgerrors.NewConfigError("ingest", "upload and catalog stores are required", nil)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	s := &service{
		hooks:    &hooks{},
		config:   cfg,
		uploads:  uploadStore,
		resolver: resolve.New(catalogStore, cfg.logger),
	}

	if notifier, ok := uploadStore.(interface{ SetExpiredFunc(uploads.ExpiredFunc) }); ok {
		notifier.SetExpiredFunc(s.uploadExpired)
	}
	return s, nil
}

func (s *service) logger(ctx context.Context) *zerolog.Logger {
	if l := logging.FromContext(ctx); l != logging.Default() {
		return l
	}
	return s.config.logger
}

// Create implements Service.
func (s *service) Create(ctx context.Context, file File) (string, error) {
	log := s.logger(ctx)

	parsed, err := csvfile.Parse(file.Reader, file.Name, file.ContentType, s.config.parse)
	if err != nil {
		log.Info().Err(err).Str("file", file.Name).Msg("Upload rejected")
		s.failed(UploadFailedEvent{Stage: StageCreate, Err: err})
		return "", err
	}

	id, err := s.uploads.Create(ctx, uploads.FromFile(parsed))
	if err != nil {
		s.failed(UploadFailedEvent{Stage: StageCreate, Err: err})
		return "", err
	}

	log.Info().
		Str("upload_id", id).
		Str("file", file.Name).
		Str("encoding", parsed.Encoding).
		Int("columns", len(parsed.Headers)).
		Int("rows", len(parsed.Rows)).
		Int("warnings", len(parsed.Warnings)).
		Msg("Upload stored")

	s.created(UploadCreatedEvent{
		UploadID: id,
		FileName: file.Name,
		Headers:  parsed.Headers,
		RowCount: len(parsed.Rows),
		Warnings: len(parsed.Warnings),
	})
	return id, nil
}

// FindByID implements Service.
func (s *service) FindByID(ctx context.Context, id string) (*Preview, error) {
	u, err := s.uploads.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sample := u.Rows[:min(len(u.Rows), s.config.sampleRows)]
	warnings := u.Warnings
	if warnings == nil {
		warnings = []csvfile.Warning{}
	}
	return &Preview{
		ID:               u.ID,
		FileName:         u.FileName,
		Headers:          u.Headers,
		SuggestedMapping: mapping.Suggest(u.Headers),
		RowCount:         len(u.Rows),
		SampleRows:       sample,
		Warnings:         warnings,
		CreatedAt:        u.CreatedAt,
		ExpiresAt:        u.ExpiresAt,
	}, nil
}

// MapUpload implements Service.
func (s *service) MapUpload(ctx context.Context, id string, m mapping.HeaderMapping, opts ...MapOption) (*Result, error) {
	if _, busy := s.inflight.LoadOrStore(id, struct{}{}); busy {
		return nil, pkgerrors.NewConflictError("upload", id, errInFlight)
	}
	defer s.inflight.Delete(id)

	mc := mapConfig{mode: s.config.mode}
	for _, opt := range opts {
		opt(&mc)
	}

	ctx = logging.WithUploadID(logging.WithLogger(ctx, s.logger(ctx)), id)
	log := logging.FromContext(ctx)
	start := time.Now()

	result, err := s.commit(ctx, id, m, mc.mode)
	if err != nil {
		log.Info().Err(err).Str("mode", mc.mode.String()).Msg("Mapping failed")
		s.failed(UploadFailedEvent{UploadID: id, Stage: StageMap, Err: err})
		return nil, err
	}

	elapsed := time.Since(start)
	log.Info().
		Int("rows", result.RowsTotal).
		Int("skipped", result.RowsSkipped).
		Int("institutions", len(result.Institutions)).
		Int("collections", len(result.Collections)).
		Int("institutions_created", result.InstitutionsCreated).
		Int("collections_created", result.CollectionsCreated).
		Dur("duration", elapsed).
		Msg("Upload mapped")

	s.mapped(UploadMappedEvent{Result: result, Duration: elapsed})
	return result, nil
}

func (s *service) commit(ctx context.Context, id string, m mapping.HeaderMapping, mode mapping.Mode) (*Result, error) {
	u, err := s.uploads.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	projection, err := mapping.Project(u.Headers, u.Rows, m, mode)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, projection.Candidates)
	if err != nil {
		return nil, err
	}

	// The records are committed; losing the upload to the reaper meanwhile
	// changes nothing for the caller.
	if err := s.uploads.Delete(ctx, id); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Failed to consume upload after commit")
	}

	return &Result{
		UploadID:            id,
		Institutions:        resolved.InstitutionNames(),
		Collections:         resolved.CollectionNames(),
		RowsTotal:           projection.RowsTotal,
		RowsSkipped:         len(projection.Skipped),
		Skipped:             nonNil(projection.Skipped),
		Warnings:            nonNil(projection.Warnings),
		InstitutionsCreated: resolved.InstitutionsCreated,
		CollectionsCreated:  resolved.CollectionsCreated,
	}, nil
}

func (s *service) uploadExpired(u *uploads.Upload) {
	s.config.logger.Info().Str("upload_id", u.ID).Str("file", u.FileName).Msg("Upload expired")
	s.expired(UploadExpiredEvent{UploadID: u.ID, FileName: u.FileName})
}

func nonNil(issues []mapping.RowIssue) []mapping.RowIssue {
	if issues == nil {
		return []mapping.RowIssue{}
	}
	return issues
}
