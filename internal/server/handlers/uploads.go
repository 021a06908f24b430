package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/internal/server/filter"
	"github.com/agentstation/collectionmap/internal/server/response"
	"github.com/agentstation/collectionmap/pkg/constants"
	"github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/ingest"
	"github.com/agentstation/collectionmap/pkg/logging"
)

// multipartOverhead is the room left for multipart headers and boundaries
// on top of the file size limit.
const multipartOverhead = 64 << 10

// CreatedUpload is the body of a successful upload.
type CreatedUpload struct {
	ID string `json:"id"`
}

// HandleCreateUpload handles POST {prefix}/uploads.
// The CSV is sent as multipart/form-data in the "file" field.
func (h *Handlers) HandleCreateUpload(w http.ResponseWriter, r *http.Request) {
	svc, err := h.app.Ingest()
	if err != nil {
		response.InternalError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile(constants.UploadFieldName)
	switch {
	case err == nil:
	case stderrors.Is(err, http.ErrNotMultipart), stderrors.Is(err, http.ErrMissingBoundary):
		response.UnsupportedMediaType(w, "send the CSV as multipart/form-data in the \""+constants.UploadFieldName+"\" field")
		return
	case stderrors.Is(err, http.ErrMissingFile):
		response.BadRequest(w, "Missing file", "multipart field \""+constants.UploadFieldName+"\" is required")
		return
	default:
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			response.TooLarge(w, err.Error())
			return
		}
		response.BadRequest(w, "Malformed multipart body", err.Error())
		return
	}
	defer func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	id, err := svc.Create(r.Context(), ingest.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		h.fail(r.Context(), w, err, "Upload rejected")
		return
	}

	logging.FromContext(r.Context()).Info().
		Str("upload_id", id).
		Str("file", header.Filename).
		Int64("size", header.Size).
		Msg("Upload stored")
	response.OK(w, CreatedUpload{ID: id})
}

// HandleGetUpload handles GET {prefix}/uploads/{id}.
func (h *Handlers) HandleGetUpload(w http.ResponseWriter, r *http.Request) {
	svc, err := h.app.Ingest()
	if err != nil {
		response.InternalError(w, err)
		return
	}

	preview, err := svc.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(r.Context(), w, err, "Upload lookup failed")
		return
	}
	response.OK(w, preview)
}

// HandleMapUpload handles POST {prefix}/uploads/{id}/map.
// The body is {"<columnIndex>": "<field>"} or {"mapping": {...}}. An unknown
// id is a 404 whatever the body holds.
// ?strict=true fails the commit on the first row missing a required value.
func (h *Handlers) HandleMapUpload(w http.ResponseWriter, r *http.Request) {
	svc, err := h.app.Ingest()
	if err != nil {
		response.InternalError(w, err)
		return
	}

	id := r.PathValue("id")
	if _, err := svc.FindByID(r.Context(), id); err != nil {
		h.fail(r.Context(), w, err, "Mapping failed")
		return
	}

	var opts []ingest.MapOption
	if r.URL.Query().Has("strict") {
		strict, err := filter.Bool(r.URL.Query(), "strict")
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		mode := mapping.Lenient
		if strict {
			mode = mapping.Strict
		}
		opts = append(opts, ingest.WithRowMode(mode))
	}

	m, err := decodeMapping(http.MaxBytesReader(w, r.Body, constants.MaxMappingBodyBytes))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.CommitTimeout)
	defer cancel()

	result, err := svc.MapUpload(ctx, id, m, opts...)
	if err != nil {
		h.fail(r.Context(), w, err, "Mapping failed")
		return
	}
	response.OK(w, result)
}

func decodeMapping(body io.Reader) (mapping.HeaderMapping, error) {
	var m mapping.HeaderMapping
	dec := json.NewDecoder(body)
	if err := dec.Decode(&m); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge), errors.IsInvalidMapping(err):
			return nil, err
		case stderrors.Is(err, io.EOF):
			return nil, errors.NewMappingError("", "request body is empty")
		}
		return nil, errors.NewMappingError("", "malformed mapping JSON: "+err.Error())
	}
	if dec.More() {
		return nil, errors.NewMappingError("", "request body must hold a single JSON object")
	}
	return m, nil
}

// fail writes err and logs it at a level matching its status.
func (h *Handlers) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	logger := logging.FromContext(ctx)
	if response.Status(err) >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg(msg)
	} else {
		logger.Debug().Err(err).Msg(msg)
	}
	response.ErrorFromType(w, err)
}
