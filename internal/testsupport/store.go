package testsupport

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FakeMetadataStore is an in-memory metadata.Store. Files are classified by
// extension instead of content, and capture dates live in a map keyed by
// base filename.
type FakeMetadataStore struct {
	mu sync.Mutex
	// Dates maps base filenames to capture dates.
	Dates map[string]time.Time
	// FailWrites makes every WriteCaptureDate report failure.
	FailWrites bool
	// Written records the dates stamped through WriteCaptureDate, keyed by
	// base filename.
	Written map[string]time.Time
}

// NewFakeMetadataStore returns an empty fake store.
func NewFakeMetadataStore() *FakeMetadataStore {
	return &FakeMetadataStore{
		Dates:   make(map[string]time.Time),
		Written: make(map[string]time.Time),
	}
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".png":  true,
	".webp": true,
}

// IsSupportedImage implements metadata.Store.
func (f *FakeMetadataStore) IsSupportedImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadCaptureDate implements metadata.Store.
func (f *FakeMetadataStore) ReadCaptureDate(_ context.Context, path string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	when, ok := f.Dates[filepath.Base(path)]
	return when, ok
}

// WriteCaptureDate implements metadata.Store.
func (f *FakeMetadataStore) WriteCaptureDate(_ context.Context, path string, when time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return false
	}
	name := filepath.Base(path)
	f.Dates[name] = when
	f.Written[name] = when
	return true
}
