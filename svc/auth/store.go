// Package auth holds the client-side session: who is logged in and whether
// that is still being determined.
package auth

import (
	"context"
	"sync"
	"time"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/authn"
	"storefront.app/pkg/logger"
	"storefront.app/pkg/session"
)

// Phase is derived from the store state, never set directly
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Snapshot is a consistent read of the session
type Snapshot struct {
	User    *apiclient.User
	Loading bool
}

// Authenticated is true exactly when a user is present
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

func (s Snapshot) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseAuthenticating
	case s.User != nil:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

// IsAdmin reports whether the current user has the admin role
func (s Snapshot) IsAdmin() bool {
	return s.User.IsAdmin()
}

// Store owns the session. It starts loading; Restore settles it.
type Store struct {
	client  *apiclient.Client
	storage session.Storage
	now     func() time.Time

	mu      sync.RWMutex
	user    *apiclient.User
	loading bool
}

// NewStore creates the session store and subscribes it to the client's 401
// handling so any rejected call logs the user out.
func NewStore(client *apiclient.Client, storage session.Storage) *Store {
	s := &Store{
		client:  client,
		storage: storage,
		now:     time.Now,
		loading: true,
	}
	client.OnUnauthorized(s.invalidate)
	return s
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: copyUser(s.user), Loading: s.loading}
}

func (s *Store) Authenticated() bool {
	return s.Snapshot().Authenticated()
}

func (s *Store) Loading() bool {
	return s.Snapshot().Loading
}

func (s *Store) User() *apiclient.User {
	return s.Snapshot().User
}

func (s *Store) set(user *apiclient.User, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = copyUser(user)
	s.loading = loading
}

func copyUser(u *apiclient.User) *apiclient.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Restore is the mount check. A persisted token with a readable user record
// is trusted without a server round trip, unless the token is a JWT whose
// exp has already passed.
func (s *Store) Restore(ctx context.Context) Snapshot {
	s.set(nil, true)

	tok, err := session.Token(ctx, s.storage)
	if err != nil {
		logger.LogError(ctx, err, "failed to read persisted token")
	}
	if tok == "" {
		s.set(nil, false)
		return s.Snapshot()
	}

	if authn.IsExpired(tok, s.now()) {
		logger.Info(ctx, "persisted token expired, dropping session")
		s.clearPersisted(ctx)
		s.set(nil, false)
		return s.Snapshot()
	}

	var user apiclient.User
	ok, err := session.LoadUser(ctx, s.storage, &user)
	if err != nil || !ok {
		if err != nil {
			logger.LogError(ctx, err, "persisted user record unreadable")
		}
		s.clearPersisted(ctx)
		s.set(nil, false)
		return s.Snapshot()
	}

	s.set(&user, false)
	return s.Snapshot()
}

// Login authenticates and persists the session. On failure the store is
// anonymous and nothing is persisted.
func (s *Store) Login(ctx context.Context, email, password string) apiclient.Result[apiclient.User] {
	s.set(nil, true)

	res := s.client.Auth.Login(ctx, apiclient.LoginInput{Email: email, Password: password})
	if !res.OK {
		s.set(nil, false)
		return apiclient.Failure[apiclient.User](res.Error, res.Status)
	}

	user := res.Data.User
	if err := session.Save(ctx, s.storage, res.Data.Token, user); err != nil {
		logger.LogError(ctx, err, "failed to persist session")
		s.clearPersisted(ctx)
		s.set(nil, false)
		return apiclient.Failure[apiclient.User]("Could not save the session", 0)
	}

	s.set(&user, false)
	logger.Info(ctx, "logged in", logger.Fields{"user_id": user.ID, "role": user.Role})
	return apiclient.Success(user, res.Message)
}

// Logout notifies the server on a best-effort basis and always clears the
// local session.
func (s *Store) Logout(ctx context.Context) {
	if session.HasToken(ctx, s.storage) {
		if res := s.client.Auth.Logout(ctx); !res.OK {
			logger.Warn(ctx, "server logout failed, clearing local session anyway", logger.Fields{
				"status": res.Status,
				"error":  res.Error,
			})
		}
	}
	s.clearPersisted(ctx)
	s.set(nil, false)
}

// Revalidate asks the server who the token belongs to and refreshes the
// persisted user. A 401 logs out through the client hook; other failures
// leave the session as it was.
func (s *Store) Revalidate(ctx context.Context) apiclient.Result[apiclient.User] {
	if !session.HasToken(ctx, s.storage) {
		s.set(nil, false)
		return apiclient.Failure[apiclient.User]("Not logged in", 0)
	}

	res := s.client.Users.Me(ctx)
	if !res.OK {
		return res
	}
	if err := session.SaveUser(ctx, s.storage, res.Data); err != nil {
		logger.LogError(ctx, err, "failed to persist refreshed user")
	}
	user := res.Data
	s.set(&user, false)
	return res
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, in apiclient.RegisterInput) apiclient.Result[apiclient.User] {
	return s.client.Auth.Register(ctx, in)
}

// UpdateProfile saves profile changes and keeps the persisted user in sync
func (s *Store) UpdateProfile(ctx context.Context, in apiclient.UpdateProfileInput) apiclient.Result[apiclient.User] {
	res := s.client.Users.UpdateProfile(ctx, in)
	if !res.OK {
		return res
	}

	// some deployments answer without the updated record
	updated := res.Data
	if updated.ID == "" {
		current := s.User()
		if current == nil {
			return res
		}
		updated = *current
		if in.Name != "" {
			updated.Name = in.Name
		}
		if in.Email != "" {
			updated.Email = in.Email
		}
		if in.PhoneNumber != "" {
			updated.PhoneNumber = in.PhoneNumber
		}
		if in.ProfilePictureURL != "" {
			updated.ProfilePictureURL = in.ProfilePictureURL
		}
	}

	if err := session.SaveUser(ctx, s.storage, updated); err != nil {
		logger.LogError(ctx, err, "failed to persist updated user")
	}
	s.set(&updated, false)
	return apiclient.Success(updated, res.Message)
}

// invalidate runs after the client has cleared persisted state on a 401
func (s *Store) invalidate(ctx context.Context) {
	logger.Info(ctx, "session invalidated by server")
	s.set(nil, false)
}

func (s *Store) clearPersisted(ctx context.Context) {
	if err := session.Clear(ctx, s.storage); err != nil {
		logger.LogError(ctx, err, "failed to clear persisted session")
	}
}
