package booking

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// DeskCache stores the active desk list between requests.  Misses and
// cache failures are reported as ok=false and never fail a read.
type DeskCache interface {
	LoadDesks(ctx context.Context) (desks []model.Desk, ok bool)
	StoreDesks(ctx context.Context, desks []model.Desk)
	Invalidate(ctx context.Context)
}

// Catalog is the read-only view of the active desks.  The desk list
// changes rarely, so it is served from cache when one is configured.
type Catalog struct {
	store DeskStore
	cache DeskCache
}

// NewCatalog builds a Catalog.  cache may be nil.
func NewCatalog(store DeskStore, cache DeskCache) *Catalog {
	return &Catalog{store: store, cache: cache}
}

// ListActiveDesks returns the active desks ordered by number.
func (c *Catalog) ListActiveDesks(ctx context.Context) ([]model.Desk, error) {
	if c.cache != nil {
		if desks, ok := c.cache.LoadDesks(ctx); ok {
			return desks, nil
		}
	}
	desks, err := c.store.ListActive(ctx)
	if err != nil {
		log.Printf("catalog: list desks: %v", err)
		return nil, storeUnavailable("list desks", err)
	}
	sort.SliceStable(desks, func(i, j int) bool { return desks[i].Number < desks[j].Number })
	if c.cache != nil {
		c.cache.StoreDesks(ctx, desks)
	}
	return desks, nil
}

// DeskByNumber finds an active desk by its number.  An unknown number
// is a validation error.
func (c *Catalog) DeskByNumber(ctx context.Context, number int) (model.Desk, error) {
	desks, err := c.ListActiveDesks(ctx)
	if err != nil {
		return model.Desk{}, err
	}
	for _, d := range desks {
		if d.Number == number {
			return d, nil
		}
	}
	return model.Desk{}, validationError("unknown desk")
}

// DeskByName finds an active desk by name, ignoring case and
// surrounding spaces.
func (c *Catalog) DeskByName(ctx context.Context, name string) (model.Desk, error) {
	desks, err := c.ListActiveDesks(ctx)
	if err != nil {
		return model.Desk{}, err
	}
	name = strings.TrimSpace(name)
	for _, d := range desks {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return model.Desk{}, validationError("unknown desk")
}

// Invalidate drops the cached desk list.  Called after seeding.
func (c *Catalog) Invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.Invalidate(ctx)
	}
}
