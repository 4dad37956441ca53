package apiclient

import (
	"context"

	"storefront.app/pkg/media"
)

type BannerService struct {
	c *Client
}

func (s *BannerService) crud() crud[Banner, BannerInput] {
	return crud[Banner, BannerInput]{
		c:        s.c,
		resource: "banners",
		path:     "/banners",
		label:    "banner",
		check:    checkBanner,
	}
}

func checkBanner(in BannerInput) error {
	return media.ValidateImageURL(in.ImageURL)
}

func (s *BannerService) List(ctx context.Context) Result[[]Banner] {
	return s.crud().list(ctx)
}

func (s *BannerService) Get(ctx context.Context, id string) Result[Banner] {
	return s.crud().get(ctx, id)
}

func (s *BannerService) Create(ctx context.Context, in BannerInput) Result[Banner] {
	return s.crud().create(ctx, in)
}

func (s *BannerService) Update(ctx context.Context, id string, in BannerInput) Result[Banner] {
	return s.crud().update(ctx, id, in)
}

func (s *BannerService) Delete(ctx context.Context, id string) Result[struct{}] {
	return s.crud().remove(ctx, id)
}
