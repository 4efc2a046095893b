// Package imageio loads and persists the image artifacts the watermark
// operations work on.
//
// A thread-safe cache avoids re-decoding originals that several operations
// touch within one session (embed, attack, estimate). Writes are atomic:
// the encoded artifact lands in a temporary file that is renamed into
// place, so a cancelled or failed call never leaves a half-written output.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp" // register BMP decoder
)

// Cache is a thread-safe cache of decoded images keyed by file path.
// Entries stay until evicted; long sessions handling many images should
// evict after use.
type Cache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewCache creates an empty cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{images: make(map[string]image.Image)}
}

// Load returns the cached image for path, decoding it from disk on first
// use. PNG, JPEG, GIF and BMP are supported.
func (c *Cache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Decode(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()
	return img, nil
}

// Evict drops one cached entry. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Decode reads and decodes an image file without caching.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// WriteAtomic encodes img as PNG at path via a temporary file in the same
// directory followed by a rename. Either the full artifact exists or none
// does.
func WriteAtomic(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wm-*.png.tmp")
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush scratch file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	return nil
}
