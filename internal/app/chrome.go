package app

import (
	"fmt"
	"sync"

	"github.com/dshills/nbsense/internal/logging"
)

// Chrome is the host page outside the notebook cells.
type Chrome interface {
	// SetImageSource points the first image matching selector at src.
	// It returns ErrNoImage when nothing matches.
	SetImageSource(selector, src string) error
}

// MemoryChrome is an in-memory Chrome holding one image source per selector.
type MemoryChrome struct {
	mu     sync.Mutex
	images map[string]string
}

// NewMemoryChrome creates a page with an image for each selector.
func NewMemoryChrome(selectors ...string) *MemoryChrome {
	c := &MemoryChrome{images: make(map[string]string)}
	for _, s := range selectors {
		c.images[s] = ""
	}
	return c
}

// SetImageSource implements Chrome.
func (c *MemoryChrome) SetImageSource(selector, src string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[selector]; !ok {
		return fmt.Errorf("%w: %s", ErrNoImage, selector)
	}
	c.images[selector] = src
	return nil
}

// ImageSource returns the current source for selector.
func (c *MemoryChrome) ImageSource(selector string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.images[selector]
	return src, ok
}

// SwapLogo replaces the branding image.
func SwapLogo(c Chrome, selector, src string, log *logging.Logger) error {
	if c == nil {
		return NewComponentError("chrome", "swap logo", ErrComponentNotAvailable)
	}
	if err := c.SetImageSource(selector, src); err != nil {
		return NewComponentError("chrome", "swap logo", err)
	}
	if log != nil {
		log.Debug("logo set to %s", src)
	}
	return nil
}
