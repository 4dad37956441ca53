package apiclient

import (
	"context"
	"net/http"
)

type CartService struct {
	c *Client
}

func (s *CartService) List(ctx context.Context) Result[[]CartItem] {
	return do[[]CartItem](ctx, s.c, call{
		resource: "carts",
		op:       "list",
		method:   http.MethodGet,
		path:     "/carts",
		success:  "cart fetched",
		fallback: "Failed to fetch cart",
	})
}

// Add puts an activity in the cart. Some deployments answer without the
// created item, in which case Data has an empty ID.
func (s *CartService) Add(ctx context.Context, in CartInput) Result[CartItem] {
	if err := requireID(in.ActivityID); err != nil {
		return Invalid[CartItem](err)
	}
	return do[CartItem](ctx, s.c, call{
		resource: "carts",
		op:       "add",
		method:   http.MethodPost,
		path:     "/carts",
		body:     in,
		success:  "Added to cart",
		fallback: "Failed to add to cart",
	})
}

func (s *CartService) Update(ctx context.Context, id string, quantity int) Result[CartItem] {
	if err := requireID(id); err != nil {
		return Invalid[CartItem](err)
	}
	return do[CartItem](ctx, s.c, call{
		resource: "carts",
		op:       "update",
		method:   http.MethodPost,
		path:     pathf("/carts/%s", id),
		body:     map[string]int{"quantity": quantity},
		success:  "Cart updated",
		fallback: "Failed to update cart",
	})
}

func (s *CartService) Delete(ctx context.Context, id string) Result[struct{}] {
	if err := requireID(id); err != nil {
		return Invalid[struct{}](err)
	}
	return do[struct{}](ctx, s.c, call{
		resource: "carts",
		op:       "delete",
		method:   http.MethodDelete,
		path:     pathf("/carts/%s", id),
		success:  "Removed from cart",
		fallback: "Failed to remove from cart",
	})
}
