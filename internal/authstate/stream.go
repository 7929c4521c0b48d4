// Package authstate carries sign-in / sign-out events per user over redis
// pub/sub and keeps the list of revoked session tokens.
package authstate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"loadboard/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Listener is called with the new identity, or nil after a sign-out.
type Listener func(identity *model.Identity)

// Stream publishes and subscribes to auth-state changes.
type Stream struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewStream creates a new Stream.
func NewStream(client *redis.Client, log zerolog.Logger) *Stream {
	return &Stream{client: client, log: log.With().Str("component", "authstate").Logger()}
}

func channel(uid string) string {
	return fmt.Sprintf("auth:state:%s", uid)
}

// event is the wire form; a null identity means signed out.
type event struct {
	Identity *model.Identity `json:"identity"`
}

// Publish announces the auth state of uid.
func (s *Stream) Publish(ctx context.Context, uid string, identity *model.Identity) error {
	data, err := json.Marshal(event{Identity: identity})
	if err != nil {
		return fmt.Errorf("failed to encode auth state: %w", err)
	}
	if err := s.client.Publish(ctx, channel(uid), data).Err(); err != nil {
		return fmt.Errorf("failed to publish auth state: %w", err)
	}
	return nil
}

// Subscribe delivers every auth-state change of uid to fn, in order, on a
// single goroutine. The returned function releases the subscription; it is
// also released when ctx ends. Calling it more than once is safe.
func (s *Stream) Subscribe(ctx context.Context, uid string, fn Listener) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := s.client.Subscribe(ctx, channel(uid))
	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to auth state: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.log.Error().Err(err).Str("uid", uid).Msg("dropping malformed auth state event")
					continue
				}
				if ctx.Err() != nil {
					return
				}
				fn(ev.Identity)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
			<-done
		})
	}, nil
}
