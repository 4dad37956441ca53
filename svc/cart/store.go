// Package cart keeps the logged-in user's cart in sync with the API and
// derives totals from it.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/config"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/logger"
	"storefront.app/pkg/metrics"
	"storefront.app/pkg/session"
)

var errQuantity = errs.Validation("Quantity must be at least 1")

// Store owns the cart. Activity data on each item is a snapshot taken when
// the cart was fetched; FetchedAt tells how old it is and nothing refreshes
// it implicitly.
type Store struct {
	client *apiclient.Client
	policy config.ErrorPolicy
	now    func() time.Time

	mu sync.RWMutex
	st state
}

type Option func(*Store)

// WithErrorPolicy sets what Fetch does with a failed refresh
func WithErrorPolicy(p config.ErrorPolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

func NewStore(client *apiclient.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		policy: config.PolicyRetainSilent,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) dispatch(a action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = reduce(s.st, a)
}

func (s *Store) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// Items returns a copy of the current lines
func (s *Store) Items() []apiclient.CartItem {
	return clone(s.snapshot().items)
}

func (s *Store) Loading() bool {
	return s.snapshot().loading
}

// FetchedAt is when the items were last replaced from the server. Zero means
// never.
func (s *Store) FetchedAt() time.Time {
	return s.snapshot().fetchedAt
}

// Total is Σ effective price × quantity over the current items
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.snapshot().items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount is Σ quantity over the current items
func (s *Store) ItemCount() int {
	n := 0
	for _, it := range s.snapshot().items {
		n += it.Quantity
	}
	return n
}

// Mount fetches the cart when a session is persisted and does nothing
// otherwise.
func (s *Store) Mount(ctx context.Context) error {
	if !session.HasToken(ctx, s.client.Storage()) {
		return nil
	}
	return s.Fetch(ctx)
}

// Fetch replaces the items with the server's cart. A failure keeps the
// previous items; whether it is returned depends on the error policy.
func (s *Store) Fetch(ctx context.Context) error {
	s.dispatch(loadingSet{loading: true})

	res := s.client.Carts.List(ctx)
	if !res.OK {
		s.dispatch(loadingSet{loading: false})
		metrics.ObserveCartMutation("fetch", false)
		logger.Warn(ctx, "cart refresh failed, keeping previous items", logger.Fields{
			"status": res.Status,
			"error":  res.Error,
			"policy": string(s.policy),
		})
		if s.policy == config.PolicySurface {
			return res.Err()
		}
		return nil
	}

	s.dispatch(itemsLoaded{items: res.Data, at: s.now()})
	metrics.ObserveCartMutation("fetch", true)
	return nil
}

// Add puts quantity of the activity in the cart and returns the resulting
// line. Unlike Fetch, failures are always returned.
func (s *Store) Add(ctx context.Context, activityID string, quantity int) (apiclient.CartItem, error) {
	if quantity < 1 {
		return apiclient.CartItem{}, errQuantity
	}

	before := map[string]bool{}
	for _, it := range s.snapshot().items {
		before[it.ID] = true
	}

	res := s.client.Carts.Add(ctx, apiclient.CartInput{ActivityID: activityID, Quantity: quantity})
	if !res.OK {
		metrics.ObserveCartMutation("add", false)
		return apiclient.CartItem{}, res.Err()
	}
	metrics.ObserveCartMutation("add", true)

	if res.Data.ID != "" {
		s.dispatch(itemAdded{item: res.Data})
		return res.Data, nil
	}

	// no line in the response; find it by reloading the cart
	list := s.client.Carts.List(ctx)
	if !list.OK {
		logger.Warn(ctx, "cart reload after add failed", logger.Fields{"status": list.Status, "error": list.Error})
		return apiclient.CartItem{}, list.Err()
	}
	s.dispatch(itemsLoaded{items: list.Data, at: s.now()})

	var found apiclient.CartItem
	for _, it := range list.Data {
		if it.ActivityID != activityID {
			continue
		}
		found = it
		if !before[it.ID] {
			break
		}
	}
	if found.ID == "" {
		return apiclient.CartItem{}, errs.New(errs.NotFound, "Added item is missing from the cart")
	}
	return found, nil
}

// Update changes a line's quantity. Quantities below one are rejected
// without a request.
func (s *Store) Update(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return errQuantity
	}

	res := s.client.Carts.Update(ctx, id, quantity)
	if !res.OK {
		metrics.ObserveCartMutation("update", false)
		return res.Err()
	}
	metrics.ObserveCartMutation("update", true)

	updated := res.Data
	items := s.snapshot().items
	if i := indexOf(items, id); i >= 0 {
		current := items[i]
		if updated.ID == "" {
			updated = current
			updated.Quantity = quantity
		} else if updated.Activity.ID == "" {
			updated.Activity = current.Activity
		}
	}
	if updated.ID == "" {
		return nil
	}
	s.dispatch(itemReplaced{item: updated})
	return nil
}

// Remove deletes a line on the server and then locally
func (s *Store) Remove(ctx context.Context, id string) error {
	res := s.client.Carts.Delete(ctx, id)
	if !res.OK {
		metrics.ObserveCartMutation("remove", false)
		return res.Err()
	}
	metrics.ObserveCartMutation("remove", true)
	s.dispatch(itemRemoved{id: id})
	return nil
}

// Clear empties the local cart only; server-side lines are untouched
func (s *Store) Clear() {
	s.dispatch(itemsCleared{})
	metrics.ObserveCartMutation("clear", true)
}
