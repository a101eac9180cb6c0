// README: Matching service; publishes resources and drives capacity requests through their lifecycle.
package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"relay/internal/metrics"
	"relay/internal/modules/conversation"
	"relay/internal/modules/notification"
	"relay/internal/modules/quote"
	"relay/internal/types"
)

// Repository is the persistence collaborator. Lock* methods must be called inside WithinTx
// and hold the row until the unit of work ends; callers lock a resource before its requests.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateResource(ctx context.Context, r *Resource) error
	GetResource(ctx context.Context, id types.ID) (*Resource, error)
	LockResource(ctx context.Context, id types.ID) (*Resource, error)
	// UpdateResource writes availability and status when the stored version still matches.
	UpdateResource(ctx context.Context, r *Resource, expectedVersion int) (bool, error)

	CreateRequest(ctx context.Context, req *Request) error
	GetRequest(ctx context.Context, id types.ID) (*Request, error)
	LockRequest(ctx context.Context, id types.ID) (*Request, error)
	// UpdateRequestStatus writes the request when its stored status is still from.
	UpdateRequestStatus(ctx context.Context, req *Request, from Status) (bool, error)
	HasPendingRequest(ctx context.Context, resourceID, requesterID types.ID) (bool, error)
	ListRequests(ctx context.Context, resourceID types.ID) ([]*Request, error)

	AppendEvent(ctx context.Context, e *Event) error
}

type Quoter interface {
	QuotePackage(ctx context.Context, cmd quote.PackageCommand) quote.Result
	QuoteRide(ctx context.Context, cmd quote.RideCommand) quote.Result
}

type ConversationSeeder interface {
	Ensure(ctx context.Context, cmd conversation.SeedCommand) (*conversation.Conversation, bool, error)
}

type Service struct {
	repo          Repository
	quotes        Quoter
	notifier      notification.Notifier
	conversations ConversationSeeder
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewService(repo Repository, quotes Quoter, notifier notification.Notifier, conversations ConversationSeeder, log logrus.FieldLogger) *Service {
	return &Service{
		repo:          repo,
		quotes:        quotes,
		notifier:      notifier,
		conversations: conversations,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type PublishCommand struct {
	OwnerID      types.ID
	Kind         Kind
	Origin       string
	Destination  string
	Seats        int
	VehicleClass string
	WeightKg     float64
	Dimensions   string
}

type CloseCommand struct {
	ResourceID types.ID
	ActorID    types.ID
}

type ProposeCommand struct {
	ResourceID  types.ID
	RequesterID types.ID
	Units       int
	Message     string
}

type TransitionCommand struct {
	RequestID types.ID
	ActorID   types.ID
	Action    Action
	Reason    string
}

// Result carries the committed state and the effects dispatched after the commit.
type Result struct {
	Request  *Request  `json:"request"`
	Resource *Resource `json:"resource"`
	Effects  []Effect  `json:"effects"`
}

// Publish quotes a listing and stores it as an open resource. A package always has capacity 1.
func (s *Service) Publish(ctx context.Context, cmd PublishCommand) (*Resource, error) {
	if cmd.OwnerID == "" {
		return nil, types.ValidationError{Field: "owner_id", Msg: "required"}
	}
	if strings.TrimSpace(cmd.Origin) == "" || strings.TrimSpace(cmd.Destination) == "" {
		return nil, types.ValidationError{Field: "address", Msg: "origin and destination are required"}
	}

	now := s.now()
	r := &Resource{
		ID:          types.NewID(),
		Kind:        cmd.Kind,
		OwnerID:     cmd.OwnerID,
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		Status:      ResourceOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var q quote.Result
	switch cmd.Kind {
	case KindRide:
		if cmd.Seats < 1 {
			return nil, types.ValidationError{Field: "seats", Msg: "must be at least 1"}
		}
		q = s.quotes.QuoteRide(ctx, quote.RideCommand{Origin: cmd.Origin, Destination: cmd.Destination, VehicleClass: cmd.VehicleClass})
		r.Capacity = cmd.Seats
		r.VehicleClass = q.Price.Breakdown.Text("vehicleClass")
	case KindPackage:
		q = s.quotes.QuotePackage(ctx, quote.PackageCommand{Origin: cmd.Origin, Destination: cmd.Destination, WeightKg: cmd.WeightKg, Dimensions: cmd.Dimensions})
		r.Capacity = 1
		r.WeightKg = q.Price.Breakdown.Number("weightKg")
		r.Dimensions = cmd.Dimensions
	default:
		return nil, types.ValidationError{Field: "kind", Msg: "must be RIDE or PACKAGE"}
	}
	r.AvailableSpace = r.Capacity
	r.DistanceKm = q.Distance.Kilometers
	r.DistanceMethod = string(q.Distance.Method)
	r.TotalPrice = q.Price.Price

	if err := s.repo.CreateResource(ctx, r); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return r, nil
}

// Close stops a resource from taking new proposals. Pending requests can still be
// rejected or cancelled.
func (s *Service) Close(ctx context.Context, cmd CloseCommand) (*Resource, error) {
	var out *Resource
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.LockResource(ctx, cmd.ResourceID)
		if err != nil {
			return err
		}
		if r.OwnerID != cmd.ActorID {
			return types.UnauthorizedError{Actor: cmd.ActorID, Action: "close"}
		}
		if r.Status == ResourceClosed {
			return types.ConflictError{Resource: "resource", Msg: "already closed"}
		}
		version := r.Version
		r.Status = ResourceClosed
		r.UpdatedAt = s.now()
		ok, err := s.repo.UpdateResource(ctx, r, version)
		if err != nil {
			return err
		}
		if !ok {
			return types.ConflictError{Resource: "resource", Msg: "concurrent update"}
		}
		r.Version = version + 1
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Propose records a PENDING request. The price is the resource total divided by the space
// available right now, times the requested units, rounded to cents only at the end.
// It is stored on the request and later charged as is.
func (s *Service) Propose(ctx context.Context, cmd ProposeCommand) (*Result, error) {
	if cmd.RequesterID == "" {
		metrics.RecordProposal(outcome(types.ValidationError{}))
		return nil, types.ValidationError{Field: "requester_id", Msg: "required"}
	}

	var res *Resource
	var req *Request
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.LockResource(ctx, cmd.ResourceID)
		if err != nil {
			return err
		}
		units := cmd.Units
		if r.Kind == KindPackage {
			units = 1
		}
		if units < 1 {
			return types.ValidationError{Field: "units", Msg: "must be at least 1"}
		}
		if cmd.RequesterID == r.OwnerID {
			return types.ValidationError{Field: "requester_id", Msg: "owner cannot request their own listing"}
		}
		if !r.Status.AcceptsProposals() {
			return types.ValidationError{Field: "resource", Msg: fmt.Sprintf("resource is %s", strings.ToLower(string(r.Status)))}
		}
		if r.AvailableSpace < units {
			return types.ValidationError{Field: "units", Msg: fmt.Sprintf("only %d available", r.AvailableSpace)}
		}
		pending, err := s.repo.HasPendingRequest(ctx, r.ID, cmd.RequesterID)
		if err != nil {
			return err
		}
		if pending {
			return types.ConflictError{Resource: "request", Msg: "a pending request already exists for this resource"}
		}

		now := s.now()
		req = &Request{
			ID:          types.NewID(),
			ResourceID:  r.ID,
			RequesterID: cmd.RequesterID,
			Units:       units,
			Status:      StatusPending,
			Price:       unitPrice(r, units),
			Message:     cmd.Message,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.CreateRequest(ctx, req); err != nil {
			return err
		}
		_ = s.repo.AppendEvent(ctx, &Event{
			RequestID:  req.ID,
			FromStatus: "",
			ToStatus:   StatusPending,
			ActorID:    cmd.RequesterID,
			CreatedAt:  now,
		})
		res = r
		return nil
	})
	metrics.RecordProposal(outcome(err))
	if err != nil {
		return nil, err
	}

	effects := proposedEffects(res, req)
	s.dispatch(ctx, effects)
	return &Result{Request: req, Resource: res, Effects: effects}, nil
}

func unitPrice(r *Resource, units int) types.Money {
	amount := r.TotalPrice.Amount.
		Div(decimal.NewFromInt(int64(r.AvailableSpace))).
		Mul(decimal.NewFromInt(int64(units))).
		Round(2)
	return types.Money{Amount: amount, Currency: r.TotalPrice.Currency}
}

// Transition applies ACCEPT, REJECT or CANCEL to a PENDING request. State is checked before
// the actor, so any call on a terminal request is a ConflictError. On failure nothing changes.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Result, error) {
	target, ok := actionTargets[cmd.Action]
	if !ok {
		metrics.RecordTransition(string(cmd.Action), "validation")
		return nil, types.ValidationError{Field: "action", Msg: "must be ACCEPT, REJECT or CANCEL"}
	}

	// Unlocked read to learn the resource, so the locks below go resource first.
	pre, err := s.repo.GetRequest(ctx, cmd.RequestID)
	if err != nil {
		metrics.RecordTransition(string(cmd.Action), outcome(err))
		return nil, err
	}

	var res *Resource
	var req *Request
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.LockResource(ctx, pre.ResourceID)
		if err != nil {
			return err
		}
		q, err := s.repo.LockRequest(ctx, cmd.RequestID)
		if err != nil {
			return err
		}
		if !CanTransition(q.Status, target) {
			return types.ConflictError{Resource: "request", Msg: fmt.Sprintf("request is already %s", strings.ToLower(string(q.Status)))}
		}
		if err := authorize(cmd, r, q); err != nil {
			return err
		}

		now := s.now()
		from := q.Status
		switch cmd.Action {
		case ActionAccept:
			if r.Status == ResourceClosed {
				return types.ValidationError{Field: "resource", Msg: "resource is closed"}
			}
			if r.AvailableSpace < q.Units {
				return types.CapacityError{Available: r.AvailableSpace, Requested: q.Units}
			}
			version := r.Version
			r.AvailableSpace -= q.Units
			if r.AvailableSpace == 0 {
				r.Status = ResourceFullyBooked
			} else {
				r.Status = ResourcePartiallyBooked
			}
			r.UpdatedAt = now
			ok, err := s.repo.UpdateResource(ctx, r, version)
			if err != nil {
				return err
			}
			if !ok {
				return types.ConflictError{Resource: "resource", Msg: "concurrent update"}
			}
			r.Version = version + 1
			q.AcceptedAt = &now
		case ActionReject:
			q.RejectedAt = &now
			q.Reason = cmd.Reason
		case ActionCancel:
			q.Reason = cmd.Reason
		}
		q.Status = target
		q.UpdatedAt = now

		ok, err := s.repo.UpdateRequestStatus(ctx, q, from)
		if err != nil {
			return err
		}
		if !ok {
			return types.ConflictError{Resource: "request", Msg: "concurrent update"}
		}
		_ = s.repo.AppendEvent(ctx, &Event{
			RequestID:  q.ID,
			FromStatus: from,
			ToStatus:   target,
			ActorID:    cmd.ActorID,
			Reason:     cmd.Reason,
			CreatedAt:  now,
		})
		res, req = r, q
		return nil
	})
	metrics.RecordTransition(string(cmd.Action), outcome(err))
	if err != nil {
		return nil, err
	}

	var effects []Effect
	switch cmd.Action {
	case ActionAccept:
		effects = acceptedEffects(res, req)
	case ActionReject:
		effects = rejectedEffects(res, req)
	case ActionCancel:
		effects = cancelledEffects(res, req)
	}
	s.dispatch(ctx, effects)

	s.log.WithFields(logrus.Fields{
		"request_id":      req.ID,
		"resource_id":     res.ID,
		"action":          cmd.Action,
		"available_space": res.AvailableSpace,
	}).Info("request transitioned")
	return &Result{Request: req, Resource: res, Effects: effects}, nil
}

// authorize: CANCEL belongs to the requester, ACCEPT and REJECT to the resource owner.
func authorize(cmd TransitionCommand, r *Resource, q *Request) error {
	allowed := cmd.ActorID == r.OwnerID
	if cmd.Action == ActionCancel {
		allowed = cmd.ActorID == q.RequesterID
	}
	if !allowed || cmd.ActorID == "" {
		return types.UnauthorizedError{Actor: cmd.ActorID, Action: strings.ToLower(string(cmd.Action))}
	}
	return nil
}

func (s *Service) GetResource(ctx context.Context, id types.ID) (*Resource, error) {
	return s.repo.GetResource(ctx, id)
}

// GetRequest is visible to the requester and to the resource owner.
func (s *Service) GetRequest(ctx context.Context, id, actorID types.ID) (*Request, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == actorID {
		return req, nil
	}
	r, err := s.repo.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != actorID {
		return nil, types.UnauthorizedError{Actor: actorID, Action: "view"}
	}
	return req, nil
}

// ListRequests is the owner's view of every request made against a resource.
func (s *Service) ListRequests(ctx context.Context, resourceID, actorID types.ID) ([]*Request, error) {
	r, err := s.repo.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != actorID {
		return nil, types.UnauthorizedError{Actor: actorID, Action: "list requests of"}
	}
	return s.repo.ListRequests(ctx, resourceID)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case types.IsValidation(err):
		return "validation"
	case types.IsNotFound(err):
		return "not_found"
	case types.IsConflict(err):
		return "conflict"
	case types.IsCapacity(err):
		return "capacity"
	case types.IsUnauthorized(err):
		return "unauthorized"
	default:
		return "error"
	}
}
