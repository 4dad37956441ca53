package apitest

// collection keeps catalog entities in insertion order
type collection[T any] struct {
	items []T
	id    func(*T) *string
}

func newCollection[T any](id func(*T) *string) *collection[T] {
	return &collection[T]{id: id}
}

func (c *collection[T]) list() []T {
	return append([]T{}, c.items...)
}

func (c *collection[T]) find(id string) (T, bool) {
	for i := range c.items {
		if *c.id(&c.items[i]) == id {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}

// put inserts v, or replaces the item with the same id
func (c *collection[T]) put(v T) T {
	if *c.id(&v) == "" {
		*c.id(&v) = newID()
	}
	for i := range c.items {
		if *c.id(&c.items[i]) == *c.id(&v) {
			c.items[i] = v
			return v
		}
	}
	c.items = append(c.items, v)
	return v
}

func (c *collection[T]) remove(id string) bool {
	for i := range c.items {
		if *c.id(&c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}
