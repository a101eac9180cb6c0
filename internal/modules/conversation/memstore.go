// README: In-memory conversation store for tests and RELAY_STORE=memory.
package conversation

import (
	"context"
	"sync"

	"relay/internal/types"
)

type MemStore struct {
	mu       sync.Mutex
	byPair   map[[2]types.ID]Conversation
	messages map[types.ID][]Message
}

func NewMemStore() *MemStore {
	return &MemStore{
		byPair:   make(map[[2]types.ID]Conversation),
		messages: make(map[types.ID][]Message),
	}
}

func (m *MemStore) FindByParticipants(_ context.Context, a, b types.ID) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byPair[[2]types.ID{a, b}]
	if !ok {
		return nil, types.NotFoundError{Resource: "conversation"}
	}
	return &c, nil
}

func (m *MemStore) Create(_ context.Context, c *Conversation, intro *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]types.ID{c.ParticipantA, c.ParticipantB}
	if _, ok := m.byPair[key]; ok {
		return ErrExists
	}
	m.byPair[key] = *c
	if intro != nil {
		m.messages[c.ID] = append(m.messages[c.ID], *intro)
	}
	return nil
}

func (m *MemStore) Messages(_ context.Context, conversationID types.ID) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages[conversationID]))
	copy(out, m.messages[conversationID])
	return out, nil
}

// Count is the number of conversations held.
func (m *MemStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPair)
}
