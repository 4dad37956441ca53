package apiclient

import (
	"context"
	"net/http"

	"storefront.app/pkg/media"
)

type ActivityService struct {
	c *Client
}

func (s *ActivityService) crud() crud[Activity, ActivityInput] {
	return crud[Activity, ActivityInput]{
		c:        s.c,
		resource: "activities",
		path:     "/activities",
		label:    "activity",
		check:    checkActivity,
	}
}

func checkActivity(in ActivityInput) error {
	return media.ValidateImageURLs(in.ImageURLs)
}

func (s *ActivityService) List(ctx context.Context) Result[[]Activity] {
	return s.crud().list(ctx)
}

func (s *ActivityService) Get(ctx context.Context, id string) Result[Activity] {
	return s.crud().get(ctx, id)
}

func (s *ActivityService) ListByCategory(ctx context.Context, categoryID string) Result[[]Activity] {
	if err := requireID(categoryID); err != nil {
		return Invalid[[]Activity](err)
	}
	return do[[]Activity](ctx, s.c, call{
		resource: "activities",
		op:       "list_by_category",
		method:   http.MethodGet,
		path:     pathf("/activities/category/%s", categoryID),
		success:  "activity fetched",
		fallback: "Failed to fetch activity",
	})
}

func (s *ActivityService) Create(ctx context.Context, in ActivityInput) Result[Activity] {
	return s.crud().create(ctx, in)
}

func (s *ActivityService) Update(ctx context.Context, id string, in ActivityInput) Result[Activity] {
	return s.crud().update(ctx, id, in)
}

func (s *ActivityService) Delete(ctx context.Context, id string) Result[struct{}] {
	return s.crud().remove(ctx, id)
}
