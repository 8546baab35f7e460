// Package watch keeps the source and buffer files synchronized by reacting
// to modification events on either one.
//
// The controller consumes an explicit stream of Change values, so the
// propagation and loop-suppression logic is testable with synthetic events;
// the fsnotify-backed Watcher in this package feeds it real ones.
package watch

import (
	"context"
	"log"
	"os"

	"github.com/tbrandt/ndedit/internal/bufstore"
	"github.com/tbrandt/ndedit/internal/config"
)

// Change reports that the file at Path was modified. Path is always one of
// the canonical source/buffer paths the controller was built with.
type Change struct {
	Path string
}

// Controller decides, per change event, which direction to propagate.
//
// Rebuilding one file necessarily modifies the other, which produces a
// change event of its own; without suppression that event would trigger the
// reverse rebuild and so on forever. The controller therefore remembers
// whose next modification is self-inflicted and consumes it exactly once.
//
// Known limitation: if the platform coalesces or reorders the self-triggered
// event relative to a genuinely new edit of the same file, the single-shot
// flag can swallow a real edit or miss a self-edit. A generation counter or
// content hash per write would close this; the debounce in Watcher narrows
// the window but does not eliminate it.
type Controller struct {
	store  *bufstore.Store
	paths  config.Paths
	logger *log.Logger

	// expecting is the path whose next change event is self-inflicted;
	// empty means none. The controller runs single-goroutine, so the field
	// needs no lock.
	expecting string
}

// NewController builds a controller over the given store.
// If logger is nil, a default logger writing to stderr is used.
func NewController(store *bufstore.Store, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}
	return &Controller{
		store:  store,
		paths:  store.Paths(),
		logger: logger,
	}
}

// HandleChange processes one change event. Rebuild failures are returned
// and are fatal to the watch loop; there are no retries.
func (c *Controller) HandleChange(ch Change) error {
	if ch.Path == c.expecting {
		// The write the controller itself just performed.
		c.expecting = ""
		return nil
	}

	switch ch.Path {
	case c.paths.Source:
		c.logger.Printf("Update: %s -> %s", c.paths.Source, c.paths.Buffer)
		if err := c.store.CreateBuffers(); err != nil {
			return err
		}
		c.expecting = c.paths.Buffer

	case c.paths.Buffer:
		c.logger.Printf("Update: %s -> %s", c.paths.Buffer, c.paths.Source)
		if err := c.store.RegenerateSource(); err != nil {
			return err
		}
		c.expecting = c.paths.Source

	default:
		// Events are prefiltered by the watcher; anything else is noise.
	}

	return nil
}

// Run consumes change events until ctx is cancelled, the channel closes, or
// a rebuild fails. A rebuild failure is returned; cancellation is not.
func (c *Controller) Run(ctx context.Context, changes <-chan Change) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			if err := c.HandleChange(ch); err != nil {
				return err
			}
		}
	}
}
