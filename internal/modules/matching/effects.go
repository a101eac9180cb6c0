// README: Post-commit side effects of matching operations and their best-effort dispatch.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"relay/internal/metrics"
	"relay/internal/modules/conversation"
	"relay/internal/modules/notification"
	"relay/internal/types"
)

type EffectKind string

const (
	EffectNotify       EffectKind = "notify"
	EffectConversation EffectKind = "conversation"
)

// Effect is produced inside the unit of work and delivered only after it commits.
type Effect struct {
	Kind         EffectKind                 `json:"kind"`
	Notification *notification.Notification `json:"notification,omitempty"`
	Conversation *conversation.SeedCommand  `json:"conversation,omitempty"`
	Err          string                     `json:"error,omitempty"`
}

func notifyEffect(userID types.ID, t notification.Type, title, body string, payload map[string]any, at time.Time) Effect {
	return Effect{Kind: EffectNotify, Notification: &notification.Notification{
		ID:        types.NewID(),
		UserID:    userID,
		Type:      t,
		Title:     title,
		Body:      body,
		Payload:   payload,
		CreatedAt: at,
	}}
}

func requestPayload(req *Request) map[string]any {
	return map[string]any{
		"request_id":  string(req.ID),
		"resource_id": string(req.ResourceID),
		"units":       req.Units,
		"status":      string(req.Status),
	}
}

// PaymentCallback is the reference a payment provider calls back with.
func PaymentCallback(requestID types.ID) string {
	return "pay:" + string(requestID)
}

func proposedEffects(res *Resource, req *Request) []Effect {
	return []Effect{
		notifyEffect(res.OwnerID, notification.TypeRequestReceived,
			"Nouvelle demande",
			fmt.Sprintf("Une demande de %d place(s) a été reçue pour %s → %s.", req.Units, res.Origin, res.Destination),
			requestPayload(req), req.CreatedAt),
	}
}

func acceptedEffects(res *Resource, req *Request) []Effect {
	payment := requestPayload(req)
	payment["amount"] = req.Price.Amount.StringFixed(2)
	payment["currency"] = req.Price.Currency
	payment["callback"] = PaymentCallback(req.ID)

	return []Effect{
		notifyEffect(req.RequesterID, notification.TypeRequestAccepted,
			"Demande acceptée",
			fmt.Sprintf("Votre demande pour %s → %s a été acceptée.", res.Origin, res.Destination),
			requestPayload(req), req.UpdatedAt),
		notifyEffect(req.RequesterID, notification.TypePaymentRequired,
			"Paiement requis",
			fmt.Sprintf("Merci de régler %s pour confirmer votre réservation.", req.Price.String()),
			payment, req.UpdatedAt),
		{Kind: EffectConversation, Conversation: &conversation.SeedCommand{
			SenderID:    res.OwnerID,
			RecipientID: req.RequesterID,
			ResourceID:  res.ID,
			Intro:       fmt.Sprintf("Bonjour ! Votre demande pour %s → %s est acceptée. Écrivez-moi ici pour organiser le rendez-vous.", res.Origin, res.Destination),
		}},
	}
}

func rejectedEffects(res *Resource, req *Request) []Effect {
	body := fmt.Sprintf("Votre demande pour %s → %s a été refusée.", res.Origin, res.Destination)
	if req.Reason != "" {
		body += " Motif : " + req.Reason
	}
	return []Effect{
		notifyEffect(req.RequesterID, notification.TypeRequestRejected, "Demande refusée", body, requestPayload(req), req.UpdatedAt),
	}
}

func cancelledEffects(res *Resource, req *Request) []Effect {
	return []Effect{
		notifyEffect(res.OwnerID, notification.TypeRequestCancelled,
			"Demande annulée",
			fmt.Sprintf("Une demande pour %s → %s a été annulée par son auteur.", res.Origin, res.Destination),
			requestPayload(req), req.UpdatedAt),
	}
}

// dispatch delivers effects in order. Failures are logged, counted and recorded on the
// effect; they never fail the operation that produced them.
func (s *Service) dispatch(ctx context.Context, effects []Effect) {
	ctx = context.WithoutCancel(ctx)
	for i := range effects {
		e := &effects[i]
		var err error
		switch e.Kind {
		case EffectNotify:
			if s.notifier != nil {
				err = s.notifier.Notify(ctx, *e.Notification)
			}
		case EffectConversation:
			if s.conversations != nil {
				_, _, err = s.conversations.Ensure(ctx, *e.Conversation)
			}
		}
		if err == nil {
			continue
		}
		e.Err = err.Error()
		metrics.RecordEffectFailure(string(e.Kind))
		fields := logrus.Fields{"effect": e.Kind}
		if e.Notification != nil {
			fields["user_id"] = e.Notification.UserID
			fields["notification_type"] = e.Notification.Type
		}
		if e.Conversation != nil {
			fields["resource_id"] = e.Conversation.ResourceID
		}
		s.log.WithFields(fields).WithError(err).Warn("side effect not delivered")
	}
}
