package apiclient

import (
	"context"
	"net/http"
)

// AuthService covers login, logout and registration
type AuthService struct {
	c *Client
}

// Login exchanges credentials for a bearer token and the user record. The
// token is returned to the caller; persisting it is the session store's job.
func (s *AuthService) Login(ctx context.Context, in LoginInput) Result[Session] {
	env, failed := s.c.exchange(ctx, call{
		resource: "auth",
		op:       "login",
		method:   http.MethodPost,
		path:     "/login",
		body:     in,
		fallback: "Login failed",
	})
	if failed != nil {
		return recast[Session](*failed)
	}

	var user User
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &user); err != nil {
			return Failure[Session]("Login failed", env.status)
		}
	}
	if env.Token == "" {
		return Failure[Session]("Login response carried no token", env.status)
	}
	return Success(Session{Token: env.Token, User: user}, "Login successful")
}

// Logout notifies the server. Callers clear local state regardless.
func (s *AuthService) Logout(ctx context.Context) Result[struct{}] {
	return do[struct{}](ctx, s.c, call{
		resource: "auth",
		op:       "logout",
		method:   http.MethodGet,
		path:     "/logout",
		success:  "Logout successful",
		fallback: "Logout failed",
	})
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) Result[User] {
	if in.Role == "" {
		in.Role = RoleUser
	}
	return do[User](ctx, s.c, call{
		resource: "auth",
		op:       "register",
		method:   http.MethodPost,
		path:     "/register",
		body:     in,
		success:  "Registration successful",
		fallback: "Registration failed",
	})
}
