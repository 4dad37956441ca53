package apiclient

import (
	"context"
	"net/http"
)

// crud implements the uniform list/get/create/update/remove contract of a
// catalog resource rooted at path.
type crud[T, In any] struct {
	c        *Client
	resource string
	path     string
	label    string
	check    func(In) error
}

func (r crud[T, In]) list(ctx context.Context) Result[[]T] {
	return do[[]T](ctx, r.c, call{
		resource: r.resource,
		op:       "list",
		method:   http.MethodGet,
		path:     r.path,
		success:  r.label + " fetched",
		fallback: "Failed to fetch " + r.label,
	})
}

func (r crud[T, In]) get(ctx context.Context, id string) Result[T] {
	if err := requireID(id); err != nil {
		return Invalid[T](err)
	}
	return do[T](ctx, r.c, call{
		resource: r.resource,
		op:       "get",
		method:   http.MethodGet,
		path:     r.path + pathf("/%s", id),
		success:  r.label + " fetched",
		fallback: "Failed to fetch " + r.label,
	})
}

func (r crud[T, In]) create(ctx context.Context, in In) Result[T] {
	if r.check != nil {
		if err := r.check(in); err != nil {
			return Invalid[T](err)
		}
	}
	return do[T](ctx, r.c, call{
		resource: r.resource,
		op:       "create",
		method:   http.MethodPost,
		path:     r.path,
		body:     in,
		success:  r.label + " created",
		fallback: "Failed to create " + r.label,
	})
}

func (r crud[T, In]) update(ctx context.Context, id string, in In) Result[T] {
	if err := requireID(id); err != nil {
		return Invalid[T](err)
	}
	if r.check != nil {
		if err := r.check(in); err != nil {
			return Invalid[T](err)
		}
	}
	return do[T](ctx, r.c, call{
		resource: r.resource,
		op:       "update",
		method:   http.MethodPost,
		path:     r.path + pathf("/%s", id),
		body:     in,
		success:  r.label + " updated",
		fallback: "Failed to update " + r.label,
	})
}

func (r crud[T, In]) remove(ctx context.Context, id string) Result[struct{}] {
	if err := requireID(id); err != nil {
		return Invalid[struct{}](err)
	}
	return do[struct{}](ctx, r.c, call{
		resource: r.resource,
		op:       "delete",
		method:   http.MethodDelete,
		path:     r.path + pathf("/%s", id),
		success:  r.label + " deleted",
		fallback: "Failed to delete " + r.label,
	})
}
