package apiclient

import (
	"context"
	"net/http"
)

type UserService struct {
	c *Client
}

// Me returns the user the current token belongs to
func (s *UserService) Me(ctx context.Context) Result[User] {
	return do[User](ctx, s.c, call{
		resource: "users",
		op:       "me",
		method:   http.MethodGet,
		path:     "/user",
		success:  "User fetched",
		fallback: "Failed to fetch user",
	})
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context) Result[[]User] {
	return do[[]User](ctx, s.c, call{
		resource: "users",
		op:       "list",
		method:   http.MethodGet,
		path:     "/all-user",
		success:  "Users fetched",
		fallback: "Failed to fetch users",
	})
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) Result[User] {
	if in.ProfilePictureURL != "" {
		if err := validateImage(in.ProfilePictureURL); err != nil {
			return Invalid[User](err)
		}
	}
	return do[User](ctx, s.c, call{
		resource: "users",
		op:       "update_profile",
		method:   http.MethodPost,
		path:     "/update-profile",
		body:     in,
		success:  "Profile updated",
		fallback: "Failed to update profile",
	})
}

// UpdateRole changes another user's role. Admin only.
func (s *UserService) UpdateRole(ctx context.Context, userID, role string) Result[User] {
	if err := requireID(userID); err != nil {
		return Invalid[User](err)
	}
	return do[User](ctx, s.c, call{
		resource: "users",
		op:       "update_role",
		method:   http.MethodPost,
		path:     pathf("/update-user-role/%s", userID),
		body:     map[string]string{"role": role},
		success:  "Role updated",
		fallback: "Failed to update role",
	})
}
