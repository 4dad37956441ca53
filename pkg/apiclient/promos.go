package apiclient

import (
	"context"

	"storefront.app/pkg/media"
)

type PromoService struct {
	c *Client
}

func (s *PromoService) crud() crud[Promo, PromoInput] {
	return crud[Promo, PromoInput]{
		c:        s.c,
		resource: "promos",
		path:     "/promos",
		label:    "promo",
		check:    checkPromo,
	}
}

// checkPromo only guards the image URL. Out-of-range percentages are
// accepted here and clamped when a discount is applied.
func checkPromo(in PromoInput) error {
	return media.ValidateImageURL(in.ImageURL)
}

func (s *PromoService) List(ctx context.Context) Result[[]Promo] {
	return s.crud().list(ctx)
}

func (s *PromoService) Get(ctx context.Context, id string) Result[Promo] {
	return s.crud().get(ctx, id)
}

func (s *PromoService) Create(ctx context.Context, in PromoInput) Result[Promo] {
	return s.crud().create(ctx, in)
}

func (s *PromoService) Update(ctx context.Context, id string, in PromoInput) Result[Promo] {
	return s.crud().update(ctx, id, in)
}

func (s *PromoService) Delete(ctx context.Context, id string) Result[struct{}] {
	return s.crud().remove(ctx, id)
}
