package adapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmcdole/moviebase/internal/domain"
)

// ErrEmptyActor indicates a login without an actor id
var ErrEmptyActor = errors.New("actor id is empty")

// ActorLoader is the part of the list store a session drives
type ActorLoader interface {
	LoadForActor(ctx context.Context, actor domain.Actor) (domain.ListCollection, error)
	Actor() domain.Actor
}

// Session tracks the signed-in actor. Changing actor persists the choice
// and reloads the list store for the new actor.
type Session struct {
	lists   ActorLoader
	persist func(actorID string) error
	logger  *slog.Logger
}

// NewSession creates a session. persist may be nil when the actor should not
// be remembered across runs.
func NewSession(lists ActorLoader, persist func(actorID string) error, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{lists: lists, persist: persist, logger: logger}
}

// Start loads lists for the configured actor without persisting anything
func (s *Session) Start(ctx context.Context, actorID string) (domain.ListCollection, error) {
	return s.lists.LoadForActor(ctx, domain.Actor{ID: strings.TrimSpace(actorID)})
}

// Current returns the active actor
func (s *Session) Current() domain.Actor {
	return s.lists.Actor()
}

// Login switches to actorID
func (s *Session) Login(ctx context.Context, actorID string) (domain.ListCollection, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.ListCollection{}, ErrEmptyActor
	}
	return s.switchTo(ctx, domain.Actor{ID: actorID})
}

// Logout switches back to the anonymous local actor
func (s *Session) Logout(ctx context.Context) (domain.ListCollection, error) {
	return s.switchTo(ctx, domain.Actor{})
}

func (s *Session) switchTo(ctx context.Context, actor domain.Actor) (domain.ListCollection, error) {
	if s.persist != nil {
		if err := s.persist(actor.ID); err != nil {
			// The switch still happens; it is just not remembered
			s.logger.Error("failed to save session", "error", err, "actor", actor.String())
		}
	}
	s.logger.Info("switching actor", "from", s.lists.Actor().String(), "to", actor.String())
	return s.lists.LoadForActor(ctx, actor)
}
