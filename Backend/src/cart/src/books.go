package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

// catalogBooks is the cart service's copy of the catalog. It is fetched on
// first use and the first non-empty list is kept for the life of the
// process; until then nothing is known and every lookup misses.
type catalogBooks struct {
	client  rpc.CatalogClient
	timeout time.Duration

	mu   sync.RWMutex
	snap *catalog.Snapshot
}

func newCatalogBooks(client rpc.CatalogClient, timeout time.Duration) *catalogBooks {
	return &catalogBooks{client: client, timeout: timeout}
}

func (c *catalogBooks) current() *catalog.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Ensure returns the snapshot, fetching it if this process has none yet.
func (c *catalogBooks) Ensure(ctx context.Context) (*catalog.Snapshot, error) {
	if s := c.current(); s != nil {
		return s, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	list, err := c.client.ListBooks(ctx, &rpc.Empty{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
	}
	books := list.Domain()
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: empty book list", catalog.ErrCatalogUnavailable)
	}
	snap, err := catalog.NewSnapshot(books)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		c.snap = snap
	}
	return c.snap, nil
}

func (c *catalogBooks) Lookup(id string) (catalog.Book, bool) { return c.current().Lookup(id) }
func (c *catalogBooks) Position(id string) int                { return c.current().Position(id) }
