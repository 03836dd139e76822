package checkout

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/model"
)

type CartAPI interface {
	FetchCart(ctx context.Context) ([]model.CartItem, error)
	UpdateCartLine(ctx context.Context, id uuid.UUID, quantity int) error
	RemoveCartLine(ctx context.Context, id uuid.UUID) error
}

// Cart mirrors the customer's server-side cart. Readers always get copies,
// and every write swaps in a new slice, so a concurrent reader never sees a
// half-applied change.
type Cart struct {
	api     CartAPI
	pricing Pricing

	mu    sync.RWMutex
	items []model.CartItem
	// mutations counts local writes; a load that started before the latest
	// write is discarded.
	mutations uint64
	loadSeq   uint64
	applied   uint64
	// lineSeq orders quantity updates per line so that a late response to an
	// older request cannot overwrite a newer one.
	lineSeq     map[uuid.UUID]uint64
	lineApplied map[uuid.UUID]uint64
}

func NewCart(api CartAPI, pricing Pricing) *Cart {
	return &Cart{
		api:         api,
		pricing:     pricing,
		items:       []model.CartItem{},
		lineSeq:     make(map[uuid.UUID]uint64),
		lineApplied: make(map[uuid.UUID]uint64),
	}
}

// Load replaces the whole list with the server's. A 401 comes back as
// ErrUnauthenticated; redirecting is the caller's job.
func (c *Cart) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loadSeq++
	seq, start := c.loadSeq, c.mutations
	c.mu.Unlock()

	items, err := c.api.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mutations != start || seq < c.applied {
		return nil
	}
	c.items = slices.Clone(items)
	c.applied = seq
	return nil
}

// UpdateQuantity sets one line's quantity once the backend accepts it.
// Quantities below 1 are rejected without a network call.
func (c *Cart) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	if c.index(id) < 0 {
		c.mu.Unlock()
		return ErrUnknownLine
	}
	c.lineSeq[id]++
	seq := c.lineSeq[id]
	c.mu.Unlock()

	if err := c.api.UpdateCartLine(ctx, id, quantity); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.lineApplied[id] {
		return nil
	}
	c.lineApplied[id] = seq
	i := c.index(id)
	if i < 0 {
		return nil
	}
	next := slices.Clone(c.items)
	next[i].Quantity = quantity
	c.items = next
	c.mutations++
	return nil
}

// Remove deletes a line on the backend, then locally.
func (c *Cart) Remove(ctx context.Context, id uuid.UUID) error {
	if err := c.api.RemoveCartLine(ctx, id); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	c.Discard(id)
	return nil
}

// Discard drops lines from local state only. Used after the backend has
// already consumed them, e.g. by placing an order.
func (c *Cart) Discard(ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(c.items), func(it model.CartItem) bool {
		return slices.Contains(ids, it.ID)
	})
	c.items = next
	for _, id := range ids {
		delete(c.lineSeq, id)
		delete(c.lineApplied, id)
	}
	c.mutations++
}

func (c *Cart) Items() []model.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Cart) Lookup(id uuid.UUID) (model.CartItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return model.CartItem{}, false
}

// Select resolves a selection of line ids, dropping duplicates and keeping
// the caller's order.
func (c *Cart) Select(ids []uuid.UUID) ([]model.CartItem, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]model.CartItem, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i := c.index(id)
		if i < 0 {
			return nil, fmt.Errorf("select %s: %w", id, ErrUnknownLine)
		}
		out = append(out, c.items[i])
	}
	return out, nil
}

// Totals is recomputed from current state on every call.
func (c *Cart) Totals() Totals {
	return c.pricing.Compute(c.Items())
}

// SelectionTotals prices only the selected lines. This is what the gateway
// is charged.
func (c *Cart) SelectionTotals(ids []uuid.UUID) (Totals, error) {
	items, err := c.Select(ids)
	if err != nil {
		return Totals{}, err
	}
	return c.pricing.Compute(items), nil
}

func (c *Cart) Pricing() Pricing {
	return c.pricing
}

func (c *Cart) index(id uuid.UUID) int {
	return slices.IndexFunc(c.items, func(it model.CartItem) bool { return it.ID == id })
}
