package apiclient

import (
	"context"
	"net/http"
)

// PaymentMethodService exposes list and generate only
type PaymentMethodService struct {
	c *Client
}

func (s *PaymentMethodService) List(ctx context.Context) Result[[]PaymentMethod] {
	return do[[]PaymentMethod](ctx, s.c, call{
		resource: "payment_methods",
		op:       "list",
		method:   http.MethodGet,
		path:     "/payment-methods",
		success:  "payment methods fetched",
		fallback: "Failed to fetch payment methods",
	})
}

// Generate asks the server to seed its default payment methods. Admin only.
func (s *PaymentMethodService) Generate(ctx context.Context) Result[struct{}] {
	return do[struct{}](ctx, s.c, call{
		resource: "payment_methods",
		op:       "generate",
		method:   http.MethodPost,
		path:     "/generate-payment-methods",
		success:  "payment methods generated",
		fallback: "Failed to generate payment methods",
	})
}
