package apiclient

import (
	"context"

	"storefront.app/pkg/media"
)

type CategoryService struct {
	c *Client
}

func (s *CategoryService) crud() crud[Category, CategoryInput] {
	return crud[Category, CategoryInput]{
		c:        s.c,
		resource: "categories",
		path:     "/categories",
		label:    "category",
		check:    checkCategory,
	}
}

func checkCategory(in CategoryInput) error {
	return media.ValidateImageURL(in.ImageURL)
}

func (s *CategoryService) List(ctx context.Context) Result[[]Category] {
	return s.crud().list(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) Result[Category] {
	return s.crud().get(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) Result[Category] {
	return s.crud().create(ctx, in)
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) Result[Category] {
	return s.crud().update(ctx, id, in)
}

func (s *CategoryService) Delete(ctx context.Context, id string) Result[struct{}] {
	return s.crud().remove(ctx, id)
}
