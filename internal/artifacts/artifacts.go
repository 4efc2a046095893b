// Package artifacts manages the stored binary artifacts behind the opaque
// image handles of the service contract.
//
// Every call gets a uniquely scoped handle: a timestamp plus a process-wide
// sequence number, so concurrent calls can never be assigned the same
// scratch identifier and one call's cleanup cannot destroy another's
// in-flight data. Output writes go through imageio.WriteAtomic, so a handle
// either names a complete artifact or nothing.
package artifacts

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sealmark/watermark-mcp/internal/fault"
	"github.com/sealmark/watermark-mcp/internal/imageio"
)

// allowed upload/output extensions, matching the service contract.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
}

// Store owns the output directory and hands out unique artifact handles.
type Store struct {
	dir string
	seq uint64
}

// NewStore creates the output directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// AllowedName reports whether a file name has a supported image extension.
func AllowedName(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// NewHandle returns a fresh, unique artifact handle with the given prefix,
// e.g. "blind_20260829_143217_000042.png". Handles are always PNG; lossy
// formats would destroy the mark.
func (s *Store) NewHandle(prefix string) string {
	n := atomic.AddUint64(&s.seq, 1)
	return fmt.Sprintf("%s_%s_%06d.png", prefix, time.Now().Format("20060102_150405"), n)
}

// Path resolves a handle to its on-disk location. Handles are bare file
// names; anything that escapes the artifact directory is rejected.
func (s *Store) Path(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) {
		return "", fault.New(fault.Validation, "malformed artifact handle %q", handle)
	}
	return filepath.Join(s.dir, handle), nil
}

// WriteImage atomically persists img under a new handle and returns the
// handle.
func (s *Store) WriteImage(prefix string, img image.Image) (string, error) {
	handle := s.NewHandle(prefix)
	path, err := s.Path(handle)
	if err != nil {
		return "", err
	}
	if err := imageio.WriteAtomic(path, img); err != nil {
		return "", err
	}
	return handle, nil
}

// CleanupOlderThan removes artifacts older than maxAge. Removal errors on
// individual files are skipped; cleanup is best-effort by design.
func (s *Store) CleanupOlderThan(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list artifact directory: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, e.Name()))
		}
	}
	return nil
}
