package cart

import (
	"fmt"
	"time"

	"storefront.app/pkg/apiclient"
)

// state is only ever replaced through reduce
type state struct {
	items     []apiclient.CartItem
	loading   bool
	fetchedAt time.Time
}

// action is the closed set of cart state transitions
type action interface {
	isAction()
}

type itemsLoaded struct {
	items []apiclient.CartItem
	at    time.Time
}

type itemAdded struct {
	item apiclient.CartItem
}

type itemReplaced struct {
	item apiclient.CartItem
}

type itemRemoved struct {
	id string
}

type itemsCleared struct{}

type loadingSet struct {
	loading bool
}

func (itemsLoaded) isAction()  {}
func (itemAdded) isAction()    {}
func (itemReplaced) isAction() {}
func (itemRemoved) isAction()  {}
func (itemsCleared) isAction() {}
func (loadingSet) isAction()   {}

func reduce(s state, a action) state {
	switch a := a.(type) {
	case itemsLoaded:
		return state{items: clone(a.items), loading: false, fetchedAt: a.at}

	case itemAdded:
		// the API may merge a repeat add into the existing line
		if i := indexOf(s.items, a.item.ID); i >= 0 {
			items := clone(s.items)
			items[i] = a.item
			s.items = items
			return s
		}
		items := make([]apiclient.CartItem, 0, len(s.items)+1)
		items = append(items, s.items...)
		s.items = append(items, a.item)
		return s

	case itemReplaced:
		i := indexOf(s.items, a.item.ID)
		if i < 0 {
			return s
		}
		items := clone(s.items)
		items[i] = a.item
		s.items = items
		return s

	case itemRemoved:
		items := make([]apiclient.CartItem, 0, len(s.items))
		for _, it := range s.items {
			if it.ID != a.id {
				items = append(items, it)
			}
		}
		s.items = items
		return s

	case itemsCleared:
		s.items = nil
		return s

	case loadingSet:
		s.loading = a.loading
		return s

	default:
		panic(fmt.Sprintf("cart: unhandled action %T", a))
	}
}

func indexOf(items []apiclient.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(items []apiclient.CartItem) []apiclient.CartItem {
	if items == nil {
		return nil
	}
	out := make([]apiclient.CartItem, len(items))
	copy(out, items)
	return out
}
