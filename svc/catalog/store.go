// Package catalog caches the public catalog (activities, categories,
// banners, promos) and filters and sorts it locally.
package catalog

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/config"
	"storefront.app/pkg/logger"
)

// State is a snapshot of one slice. After a fetch settles exactly one of
// fresh Data or Error was written; a failure keeps the previous Data.
type State[T any] struct {
	Data    []T
	Loading bool
	Error   string
}

// Slice holds one resource list
type Slice[T any] struct {
	name   string
	list   func(context.Context) apiclient.Result[[]T]
	policy config.ErrorPolicy

	mu sync.RWMutex
	st State[T]
}

func NewSlice[T any](name string, list func(context.Context) apiclient.Result[[]T], policy config.ErrorPolicy) *Slice[T] {
	return &Slice[T]{name: name, list: list, policy: policy}
}

// State returns a copy of the current state
func (s *Slice[T]) State() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.st
	st.Data = slices.Clone(st.Data)
	return st
}

// Fetch reloads the slice with its list call
func (s *Slice[T]) Fetch(ctx context.Context) error {
	return s.FetchFrom(ctx, s.list)
}

// FetchFrom reloads the slice from a different call, e.g. a filtered list
func (s *Slice[T]) FetchFrom(ctx context.Context, list func(context.Context) apiclient.Result[[]T]) error {
	s.mu.Lock()
	s.st.Loading = true
	s.st.Error = ""
	s.mu.Unlock()

	res := list(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Loading = false
	if !res.OK {
		s.st.Error = res.Error
		logger.Warn(ctx, "catalog refresh failed, keeping previous data", logger.Fields{
			"slice":  s.name,
			"status": res.Status,
			"error":  res.Error,
			"kept":   len(s.st.Data),
		})
		if s.policy == config.PolicySurface {
			return res.Err()
		}
		return nil
	}

	s.st.Data = res.Data
	if s.st.Data == nil {
		s.st.Data = []T{}
	}
	return nil
}

// Store groups the catalog slices
type Store struct {
	client *apiclient.Client

	Activities *Slice[apiclient.Activity]
	Categories *Slice[apiclient.Category]
	Banners    *Slice[apiclient.Banner]
	Promos     *Slice[apiclient.Promo]
}

func NewStore(client *apiclient.Client, policy config.ErrorPolicy) *Store {
	if policy == "" {
		policy = config.PolicyRetainSilent
	}
	return &Store{
		client:     client,
		Activities: NewSlice("activities", client.Activities.List, policy),
		Categories: NewSlice("categories", client.Categories.List, policy),
		Banners:    NewSlice("banners", client.Banners.List, policy),
		Promos:     NewSlice("promos", client.Promos.List, policy),
	}
}

// FetchAll refreshes every slice concurrently. A failing slice does not stop
// the others; the first surfaced error is returned after all have settled.
func (s *Store) FetchAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Activities.Fetch(ctx) })
	g.Go(func() error { return s.Categories.Fetch(ctx) })
	g.Go(func() error { return s.Banners.Fetch(ctx) })
	g.Go(func() error { return s.Promos.Fetch(ctx) })
	return g.Wait()
}

// FetchActivitiesInCategory replaces the activities slice with one category
func (s *Store) FetchActivitiesInCategory(ctx context.Context, categoryID string) error {
	return s.Activities.FetchFrom(ctx, func(ctx context.Context) apiclient.Result[[]apiclient.Activity] {
		return s.client.Activities.ListByCategory(ctx, categoryID)
	})
}

// BrowseActivities applies f and order to the cached activities
func (s *Store) BrowseActivities(f Filter, order SortOrder) []apiclient.Activity {
	return Apply(s.Activities.State().Data, f, order)
}
