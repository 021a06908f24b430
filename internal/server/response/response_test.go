package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"id": "u1"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	if body := w.Body.String(); body != "{\"data\":{\"id\":\"u1\"},\"error\":null}\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestErrorFromType(t *testing.T) {
	parseErr := pkgerrors.NewParseError("csv", "x.csv", "header row is empty", nil)
	parseErr.Line = 1

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail bool
	}{
		{"parse", parseErr, http.StatusBadRequest, CodeInvalidFile, true},
		{"mapping", pkgerrors.NewColumnMappingError(4, "latitude", "column index out of range [0, 3)"), http.StatusBadRequest, CodeInvalidMapping, true},
		{"wrapped mapping", fmt.Errorf("map upload: %w", pkgerrors.NewMappingError("", "no rows")), http.StatusBadRequest, CodeInvalidMapping, true},
		{"not found", pkgerrors.NewNotFoundError("upload", "u1"), http.StatusNotFound, CodeNotFound, true},
		{"conflict", pkgerrors.NewConflictError("institution", "nhm", errors.New("E11000 duplicate key")), http.StatusConflict, CodeConflict, true},
		{"validation", pkgerrors.NewValidationError("strict", "maybe", "must be a boolean"), http.StatusBadRequest, CodeBadRequest, true},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, CodeTooLarge, true},
		{"internal", errors.New("connection reset by peer"), http.StatusInternalServerError, CodeInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := Status(tt.err); got != tt.wantStatus {
				t.Errorf("Status() = %d, want %d", got, tt.wantStatus)
			}
			if got := Code(tt.err); got != tt.wantCode {
				t.Errorf("Code() = %s, want %s", got, tt.wantCode)
			}
			resp := decode(t, w)
			if resp.Data != nil {
				t.Errorf("expected nil data, got %v", resp.Data)
			}
			if resp.Error == nil {
				t.Fatal("expected error body")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Error.Code)
			}
			if tt.wantDetail && resp.Error.Details == "" {
				t.Error("expected details")
			}
		})
	}
}

func TestErrorFromTypeHidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorFromType(w, errors.New("mongo: password=hunter2"))

	resp := decode(t, w)
	if resp.Error.Details != "An unexpected error occurred" {
		t.Errorf("internal error leaked: %q", resp.Error.Details)
	}
}

func TestErrorFromTypeHidesConflictCause(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorFromType(w, pkgerrors.NewConflictError("collection", "herbarium", errors.New("write conflict on node-3")))

	resp := decode(t, w)
	if resp.Error.Details != "A concurrent write won; retry the request" {
		t.Errorf("unexpected details %q", resp.Error.Details)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(w, http.MethodDelete)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp.Error.Details != "Method DELETE is not supported for this endpoint" {
		t.Errorf("unexpected details %q", resp.Error.Details)
	}
}
