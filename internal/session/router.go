// Package session decides which screen group a client should be on, from
// the auth state of its identity and the role in the user's profile record.
package session

import (
	"context"
	"errors"
	"sync"

	"loadboard/internal/authstate"
	"loadboard/internal/model"
	"loadboard/internal/repository"

	"github.com/rs/zerolog"
)

// ScreenGroup is the set of screens a client is allowed to show.
type ScreenGroup string

const (
	GroupAuth  ScreenGroup = "auth"
	GroupAdmin ScreenGroup = "admin"
	GroupUser  ScreenGroup = "user"
)

// UserFinder looks up profile records.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AuthStateSource is the identity push stream.
type AuthStateSource interface {
	OnAuthStateChanged(ctx context.Context, uid string, fn authstate.Listener) (func(), error)
}

// Router maps identities to screen groups.
type Router struct {
	users UserFinder
	log   zerolog.Logger
}

func NewRouter(users UserFinder, log zerolog.Logger) *Router {
	return &Router{users: users, log: log.With().Str("component", "session").Logger()}
}

// Route picks the screen group for identity. A signed-out client, a missing
// profile record and a failed lookup all land on the auth screens; only an
// admin profile reaches the admin dashboard. Lookups are not retried.
func (r *Router) Route(ctx context.Context, identity *model.Identity) ScreenGroup {
	if identity == nil {
		return GroupAuth
	}
	user, err := r.users.FindByID(ctx, identity.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.log.Warn().Str("uid", identity.UID).Msg("signed-in identity has no profile record")
		} else {
			r.log.Error().Err(err).Str("uid", identity.UID).Msg("failed to load profile for routing")
		}
		return GroupAuth
	}
	if user.IsAdmin() {
		return GroupAdmin
	}
	return GroupUser
}

// Watch routes identity right away and then on every auth-state change of
// its uid, calling onRoute with the result each time. The subscription is
// taken before the first lookup, so a change published during it is not
// lost. A result superseded by a newer change is dropped. The returned
// function stops the watch; it is also stopped when ctx ends.
func (r *Router) Watch(ctx context.Context, source AuthStateSource, identity *model.Identity, onRoute func(ScreenGroup)) (func(), error) {
	if identity == nil {
		onRoute(r.Route(ctx, nil))
		return func() {}, nil
	}

	var (
		mu     sync.Mutex
		latest uint64
	)
	deliver := func(next *model.Identity) {
		mu.Lock()
		latest++
		seq := latest
		mu.Unlock()

		group := r.Route(ctx, next)

		mu.Lock()
		defer mu.Unlock()
		if seq != latest {
			return
		}
		onRoute(group)
	}

	stop, err := source.OnAuthStateChanged(ctx, identity.UID, func(next *model.Identity) {
		if ctx.Err() != nil {
			return
		}
		deliver(next)
	})
	if err != nil {
		return nil, err
	}
	deliver(identity)
	return stop, nil
}
