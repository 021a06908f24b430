package ingest

import (
	"sync"
	"time"
)

// Stage names where a failure happened.
const (
	StageCreate = "create"
	StageMap    = "map"
)

// UploadCreatedEvent describes a stored upload.
type UploadCreatedEvent struct {
	UploadID string
	FileName string
	Headers  []string
	RowCount int
	Warnings int
}

// UploadMappedEvent describes a committed upload.
type UploadMappedEvent struct {
	Result   *Result
	Duration time.Duration
}

// UploadFailedEvent describes a rejected file or failed commit.
// UploadID is empty for files rejected before they were stored.
type UploadFailedEvent struct {
	UploadID string
	Stage    string
	Err      error
}

// UploadExpiredEvent describes an upload reaped before it was mapped.
type UploadExpiredEvent struct {
	UploadID string
	FileName string
}

// Hook function types.
type (
	UploadCreatedHook func(UploadCreatedEvent)
	UploadMappedHook  func(UploadMappedEvent)
	UploadFailedHook  func(UploadFailedEvent)
	UploadExpiredHook func(UploadExpiredEvent)
)

// hooks holds registered callbacks. Callbacks run synchronously on the
// goroutine that triggered them.
type hooks struct {
	mu        sync.RWMutex
	onCreated []UploadCreatedHook
	onMapped  []UploadMappedHook
	onFailed  []UploadFailedHook
	onExpired []UploadExpiredHook
}

func (h *hooks) OnUploadCreated(fn UploadCreatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCreated = append(h.onCreated, fn)
}

func (h *hooks) OnUploadMapped(fn UploadMappedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMapped = append(h.onMapped, fn)
}

func (h *hooks) OnUploadFailed(fn UploadFailedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFailed = append(h.onFailed, fn)
}

func (h *hooks) OnUploadExpired(fn UploadExpiredHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onExpired = append(h.onExpired, fn)
}

func (h *hooks) created(e UploadCreatedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onCreated {
		fn(e)
	}
}

func (h *hooks) mapped(e UploadMappedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onMapped {
		fn(e)
	}
}

func (h *hooks) failed(e UploadFailedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onFailed {
		fn(e)
	}
}

func (h *hooks) expired(e UploadExpiredEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onExpired {
		fn(e)
	}
}
