// README: Conversation store backed by PostgreSQL.
package conversation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"relay/internal/infra"
	"relay/internal/types"
)

type Store struct {
	db *infra.TxRunner
}

func NewStore(db *infra.TxRunner) *Store {
	return &Store{db: db}
}

func (s *Store) FindByParticipants(ctx context.Context, a, b types.ID) (*Conversation, error) {
	var c Conversation
	var resourceID *string
	err := s.db.Conn(ctx).QueryRow(ctx, `
		SELECT id, participant_a, participant_b, resource_id, created_at
		FROM conversations
		WHERE participant_a = $1 AND participant_b = $2`,
		string(a), string(b),
	).Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &resourceID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NotFoundError{Resource: "conversation"}
	}
	if err != nil {
		return nil, err
	}
	if resourceID != nil {
		c.ResourceID = types.ID(*resourceID)
	}
	return &c, nil
}

// Create inserts the conversation and its intro message atomically. The unique pair index
// turns a concurrent duplicate into ErrExists.
func (s *Store) Create(ctx context.Context, c *Conversation, intro *Message) error {
	return s.db.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db.Conn(ctx)
		tag, err := q.Exec(ctx, `
			INSERT INTO conversations (id, participant_a, participant_b, resource_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (participant_a, participant_b) DO NOTHING`,
			string(c.ID), string(c.ParticipantA), string(c.ParticipantB), nullableID(c.ResourceID), c.CreatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrExists
		}
		if intro == nil {
			return nil
		}
		_, err = q.Exec(ctx, `
			INSERT INTO messages (id, conversation_id, sender_id, body, automatic, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			string(intro.ID), string(intro.ConversationID), string(intro.SenderID), intro.Body, intro.Automatic, intro.CreatedAt,
		)
		return err
	})
}

func (s *Store) Messages(ctx context.Context, conversationID types.ID) ([]Message, error) {
	rows, err := s.db.Conn(ctx).Query(ctx, `
		SELECT id, conversation_id, sender_id, body, automatic, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`, string(conversationID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.Automatic, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullableID(id types.ID) *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}
