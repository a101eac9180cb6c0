// README: Conversation service tests against the in-memory store.
package conversation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/types"
)

func TestEnsure_CreatesOnceWithIntro(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc := NewService(store)

	c, created, err := svc.Ensure(ctx, SeedCommand{SenderID: "owner", RecipientID: "rider", ResourceID: "ride-1", Intro: "Bonjour !"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, types.ID("owner"), c.ParticipantA)
	assert.Equal(t, types.ID("rider"), c.ParticipantB)

	again, created, err := svc.Ensure(ctx, SeedCommand{SenderID: "rider", RecipientID: "owner", ResourceID: "ride-2", Intro: "Salut"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, types.ID("ride-1"), again.ResourceID)

	_, msgs, err := svc.Between(ctx, "rider", "owner")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Automatic)
	assert.Equal(t, "Bonjour !", msgs[0].Body)
	assert.Equal(t, types.ID("owner"), msgs[0].SenderID)
}

func TestEnsure_RejectsSelfConversation(t *testing.T) {
	_, _, err := NewService(NewMemStore()).Ensure(context.Background(), SeedCommand{SenderID: "u", RecipientID: "u"})
	assert.True(t, types.IsValidation(err))
}

func TestEnsure_ConcurrentCallsConvergeOnOne(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc := NewService(store)

	var wg sync.WaitGroup
	ids := make(chan types.ID, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _, err := svc.Ensure(ctx, SeedCommand{SenderID: "a", RecipientID: "b", Intro: "hi"})
			if err == nil {
				ids <- c.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first types.ID
	n := 0
	for id := range ids {
		if first == "" {
			first = id
		}
		assert.Equal(t, first, id)
		n++
	}
	assert.Equal(t, 8, n)
	assert.Equal(t, 1, store.Count())
}

func TestBetween_NotFound(t *testing.T) {
	_, _, err := NewService(NewMemStore()).Between(context.Background(), "x", "y")
	assert.True(t, types.IsNotFound(err))
}
