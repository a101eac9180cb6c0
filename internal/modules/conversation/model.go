// README: Conversation between two parties, opened the first time one of their requests is accepted.
package conversation

import (
	"time"

	"relay/internal/types"
)

// Conversation participants are stored in sorted order so (a, b) and (b, a) are one pair.
type Conversation struct {
	ID           types.ID  `json:"id"`
	ParticipantA types.ID  `json:"participant_a"`
	ParticipantB types.ID  `json:"participant_b"`
	ResourceID   types.ID  `json:"resource_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Message struct {
	ID             types.ID  `json:"id"`
	ConversationID types.ID  `json:"conversation_id"`
	SenderID       types.ID  `json:"sender_id"`
	Body           string    `json:"body"`
	Automatic      bool      `json:"automatic"`
	CreatedAt      time.Time `json:"created_at"`
}

func orderedPair(a, b types.ID) (types.ID, types.ID) {
	if b < a {
		return b, a
	}
	return a, b
}
