// README: Conversation service; opens a conversation once per pair and seeds an automatic message.
package conversation

import (
	"context"
	"errors"
	"time"

	"relay/internal/types"
)

var ErrExists = errors.New("conversation already exists")

type Repository interface {
	FindByParticipants(ctx context.Context, a, b types.ID) (*Conversation, error)
	Create(ctx context.Context, c *Conversation, intro *Message) error
	Messages(ctx context.Context, conversationID types.ID) ([]Message, error)
}

type Service struct {
	store Repository
	now   func() time.Time
}

func NewService(store Repository) *Service {
	return &Service{store: store, now: time.Now}
}

type SeedCommand struct {
	SenderID    types.ID
	RecipientID types.ID
	ResourceID  types.ID
	Intro       string
}

// Ensure returns the existing conversation between the two users, or creates it with the
// intro message sent on behalf of SenderID. created reports which of the two happened.
func (s *Service) Ensure(ctx context.Context, cmd SeedCommand) (c *Conversation, created bool, err error) {
	if cmd.SenderID == "" || cmd.RecipientID == "" || cmd.SenderID == cmd.RecipientID {
		return nil, false, types.ValidationError{Field: "participants", Msg: "two distinct users required"}
	}
	a, b := orderedPair(cmd.SenderID, cmd.RecipientID)

	existing, err := s.store.FindByParticipants(ctx, a, b)
	if err == nil {
		return existing, false, nil
	}
	if !types.IsNotFound(err) {
		return nil, false, err
	}

	now := s.now()
	c = &Conversation{
		ID:           types.NewID(),
		ParticipantA: a,
		ParticipantB: b,
		ResourceID:   cmd.ResourceID,
		CreatedAt:    now,
	}
	intro := &Message{
		ID:             types.NewID(),
		ConversationID: c.ID,
		SenderID:       cmd.SenderID,
		Body:           cmd.Intro,
		Automatic:      true,
		CreatedAt:      now,
	}
	if err := s.store.Create(ctx, c, intro); err != nil {
		// Lost a race with a concurrent accept between the same users.
		if errors.Is(err, ErrExists) {
			existing, ferr := s.store.FindByParticipants(ctx, a, b)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}

func (s *Service) Between(ctx context.Context, a, b types.ID) (*Conversation, []Message, error) {
	a, b = orderedPair(a, b)
	c, err := s.store.FindByParticipants(ctx, a, b)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.Messages(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, msgs, nil
}
