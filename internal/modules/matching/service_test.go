// README: Matching state machine tests against the in-memory repository.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/logging"
	"relay/internal/modules/conversation"
	"relay/internal/modules/distance"
	"relay/internal/modules/notification"
	"relay/internal/modules/pricing"
	"relay/internal/modules/quote"
	"relay/internal/types"
)

// fixedQuoter prices every ride and package at the same total.
type fixedQuoter struct {
	total float64
}

func (f fixedQuoter) result(km float64) quote.Result {
	return quote.Result{
		Distance: distance.Quote{Kilometers: km, Method: distance.MethodExactCityPair},
		Price:    pricing.Quote{Price: types.EUR(f.total), Breakdown: pricing.Breakdown{{Label: "vehicleClass", Value: "CAR"}}},
	}
}

func (f fixedQuoter) QuotePackage(context.Context, quote.PackageCommand) quote.Result { return f.result(465) }
func (f fixedQuoter) QuoteRide(context.Context, quote.RideCommand) quote.Result       { return f.result(465) }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingNotifier) ofType(t notification.Type) []notification.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Notification
	for _, n := range r.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	svc   *Service
	repo  *MemStore
	notes *recordingNotifier
	convs *conversation.MemStore
}

func newFixture(t *testing.T, total float64) *fixture {
	t.Helper()
	repo := NewMemStore()
	notes := &recordingNotifier{}
	convs := conversation.NewMemStore()
	svc := NewService(repo, fixedQuoter{total: total}, notes, conversation.NewService(convs), logging.Discard())
	return &fixture{svc: svc, repo: repo, notes: notes, convs: convs}
}

func (f *fixture) ride(t *testing.T, owner types.ID, seats int) *Resource {
	t.Helper()
	r, err := f.svc.Publish(context.Background(), PublishCommand{
		OwnerID: owner, Kind: KindRide, Origin: "Paris", Destination: "Lyon", Seats: seats, VehicleClass: "car",
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) propose(t *testing.T, resourceID, requester types.ID, units int) *Request {
	t.Helper()
	res, err := f.svc.Propose(context.Background(), ProposeCommand{ResourceID: resourceID, RequesterID: requester, Units: units})
	require.NoError(t, err)
	return res.Request
}

func (f *fixture) act(requestID, actor types.ID, action Action) (*Result, error) {
	return f.svc.Transition(context.Background(), TransitionCommand{RequestID: requestID, ActorID: actor, Action: action})
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, false},
		{StatusRejected, StatusAccepted, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusAccepted.Terminal())
}

func TestPublish(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 3)
	assert.Equal(t, ResourceOpen, r.Status)
	assert.Equal(t, 3, r.Capacity)
	assert.Equal(t, 3, r.AvailableSpace)
	assert.Equal(t, "30.00", r.TotalPrice.Amount.StringFixed(2))
	assert.Equal(t, 465.0, r.DistanceKm)

	p, err := f.svc.Publish(context.Background(), PublishCommand{OwnerID: "shipper", Kind: KindPackage, Origin: "Paris", Destination: "Lille", WeightKg: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Capacity)

	_, err = f.svc.Publish(context.Background(), PublishCommand{OwnerID: "owner", Kind: KindRide, Origin: "Paris", Destination: "Lyon"})
	assert.True(t, types.IsValidation(err))
	_, err = f.svc.Publish(context.Background(), PublishCommand{OwnerID: "owner", Kind: "BOAT", Origin: "Paris", Destination: "Lyon"})
	assert.True(t, types.IsValidation(err))
	_, err = f.svc.Publish(context.Background(), PublishCommand{Kind: KindRide, Origin: "Paris", Destination: "Lyon", Seats: 1})
	assert.True(t, types.IsValidation(err))
}

func TestPropose_PendingWithPriceAndOwnerNotified(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 3)

	res, err := f.svc.Propose(context.Background(), ProposeCommand{ResourceID: r.ID, RequesterID: "rider", Units: 2, Message: "Deux places svp"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Request.Status)
	assert.Equal(t, "20.00", res.Request.Price.Amount.StringFixed(2))
	assert.Equal(t, "Deux places svp", res.Request.Message)

	received := f.notes.ofType(notification.TypeRequestReceived)
	require.Len(t, received, 1)
	assert.Equal(t, types.ID("owner"), received[0].UserID)
	assert.Equal(t, string(res.Request.ID), received[0].Payload["request_id"])

	stored, err := f.repo.GetResource(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.AvailableSpace, "proposing does not reserve capacity")
}

func TestPropose_Failures(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	ctx := context.Background()

	_, err := f.svc.Propose(ctx, ProposeCommand{ResourceID: "missing", RequesterID: "rider", Units: 1})
	assert.True(t, types.IsNotFound(err), "unknown resource")

	_, err = f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, RequesterID: "rider", Units: 3})
	assert.True(t, types.IsValidation(err), "more units than available")

	_, err = f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, RequesterID: "rider", Units: 0})
	assert.True(t, types.IsValidation(err), "zero units")

	_, err = f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, RequesterID: "owner", Units: 1})
	assert.True(t, types.IsValidation(err), "owner proposing")

	_, err = f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, Units: 1})
	assert.True(t, types.IsValidation(err), "anonymous requester")

	f.propose(t, r.ID, "rider", 1)
	_, err = f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, RequesterID: "rider", Units: 1})
	assert.True(t, types.IsConflict(err), "duplicate pending request")

	_, err = f.svc.Close(ctx, CloseCommand{ResourceID: r.ID, ActorID: "owner"})
	require.NoError(t, err)
	_, err = f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, RequesterID: "other", Units: 1})
	assert.True(t, types.IsValidation(err), "closed resource")
}

func TestPropose_AfterCancelTheSameRequesterMayPropose(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 1)
	_, err := f.act(req.ID, "rider", ActionCancel)
	require.NoError(t, err)
	f.propose(t, r.ID, "rider", 1)
}

func TestPropose_PackageAlwaysOneUnit(t *testing.T) {
	f := newFixture(t, 12)
	p, err := f.svc.Publish(context.Background(), PublishCommand{OwnerID: "shipper", Kind: KindPackage, Origin: "Paris", Destination: "Lille", WeightKg: 3})
	require.NoError(t, err)

	req := f.propose(t, p.ID, "carrier", 5)
	assert.Equal(t, 1, req.Units)
	assert.Equal(t, "12.00", req.Price.Amount.StringFixed(2))

	res, err := f.act(req.ID, "shipper", ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, ResourceFullyBooked, res.Resource.Status)
	assert.Equal(t, 0, res.Resource.AvailableSpace)
}

func TestPropose_PriceRoundedOnlyAtTheEnd(t *testing.T) {
	f := newFixture(t, 10)
	r := f.ride(t, "owner", 3)
	req := f.propose(t, r.ID, "rider", 2)
	// 10 / 3 * 2 = 6.666..., not 3.33 * 2
	assert.Equal(t, "6.67", req.Price.Amount.StringFixed(2))
}

// The per-unit price is derived from the space available when the proposal is made, so
// it drifts once other requests have been accepted. The stored price is what gets charged.
func TestPropose_PerUnitPriceDriftsWithAvailableSpace(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 3)

	early := f.propose(t, r.ID, "early", 1)
	assert.Equal(t, "10.00", early.Price.Amount.StringFixed(2))
	_, err := f.act(early.ID, "owner", ActionAccept)
	require.NoError(t, err)

	late := f.propose(t, r.ID, "late", 1)
	assert.Equal(t, "15.00", late.Price.Amount.StringFixed(2))

	res, err := f.act(late.ID, "owner", ActionAccept)
	require.NoError(t, err)
	var payment *notification.Notification
	for _, e := range res.Effects {
		if e.Notification != nil && e.Notification.Type == notification.TypePaymentRequired {
			payment = e.Notification
		}
	}
	require.NotNil(t, payment)
	assert.Equal(t, "15.00", payment.Payload["amount"])
	assert.Equal(t, "EUR", payment.Payload["currency"])
	assert.Equal(t, PaymentCallback(late.ID), payment.Payload["callback"])
}

func TestAccept_DecrementsCapacityAndEmitsEffects(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 3)
	req := f.propose(t, r.ID, "rider", 2)

	res, err := f.act(req.ID, "owner", ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, res.Request.Status)
	require.NotNil(t, res.Request.AcceptedAt)
	assert.Nil(t, res.Request.RejectedAt)
	assert.Equal(t, 1, res.Resource.AvailableSpace)
	assert.Equal(t, ResourcePartiallyBooked, res.Resource.Status)

	require.Len(t, res.Effects, 3)
	assert.Equal(t, notification.TypeRequestAccepted, res.Effects[0].Notification.Type)
	assert.Equal(t, notification.TypePaymentRequired, res.Effects[1].Notification.Type)
	assert.Equal(t, EffectConversation, res.Effects[2].Kind)
	for _, e := range res.Effects {
		assert.Empty(t, e.Err)
	}
	assert.Len(t, f.notes.ofType(notification.TypeRequestAccepted), 1)
	assert.Equal(t, types.ID("rider"), f.notes.ofType(notification.TypePaymentRequired)[0].UserID)

	stored, err := f.repo.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)
}

func TestReject_RecordsReasonWithoutTouchingCapacity(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 2)

	res, err := f.svc.Transition(context.Background(), TransitionCommand{RequestID: req.ID, ActorID: "owner", Action: ActionReject, Reason: "Trajet complet"})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Request.Status)
	assert.Equal(t, "Trajet complet", res.Request.Reason)
	require.NotNil(t, res.Request.RejectedAt)
	assert.Equal(t, 2, res.Resource.AvailableSpace)
	assert.Equal(t, ResourceOpen, res.Resource.Status)

	rejected := f.notes.ofType(notification.TypeRequestRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, types.ID("rider"), rejected[0].UserID)
	assert.Contains(t, rejected[0].Body, "Trajet complet")
}

func TestCancel_NotifiesOwner(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 1)

	res, err := f.act(req.ID, "rider", ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Request.Status)
	assert.Nil(t, res.Request.AcceptedAt)
	assert.Nil(t, res.Request.RejectedAt)
	assert.True(t, res.Request.UpdatedAt.After(res.Request.CreatedAt) || res.Request.UpdatedAt.Equal(res.Request.CreatedAt))
	assert.Equal(t, 2, res.Resource.AvailableSpace)

	cancelled := f.notes.ofType(notification.TypeRequestCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, types.ID("owner"), cancelled[0].UserID)
}

func TestTransition_Authorization(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 1)

	for _, tc := range []struct {
		actor  types.ID
		action Action
	}{
		{"owner", ActionCancel},
		{"stranger", ActionCancel},
		{"rider", ActionAccept},
		{"stranger", ActionAccept},
		{"rider", ActionReject},
		{"", ActionReject},
	} {
		t.Run(fmt.Sprintf("%s_%s", tc.actor, tc.action), func(t *testing.T) {
			_, err := f.act(req.ID, tc.actor, tc.action)
			assert.True(t, types.IsUnauthorized(err), "got %v", err)
		})
	}

	stored, err := f.repo.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestTransition_TerminalStatesAreFrozen(t *testing.T) {
	for _, terminal := range []Action{ActionAccept, ActionReject, ActionCancel} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFixture(t, 30)
			r := f.ride(t, "owner", 4)
			req := f.propose(t, r.ID, "rider", 1)
			actor := types.ID("owner")
			if terminal == ActionCancel {
				actor = "rider"
			}
			_, err := f.act(req.ID, actor, terminal)
			require.NoError(t, err)
			before, _ := f.repo.GetRequest(context.Background(), req.ID)
			resBefore, _ := f.repo.GetResource(context.Background(), r.ID)

			for _, next := range []struct {
				actor  types.ID
				action Action
			}{
				{"owner", ActionAccept}, {"owner", ActionReject}, {"rider", ActionCancel}, {"stranger", ActionCancel},
			} {
				_, err := f.act(req.ID, next.actor, next.action)
				assert.True(t, types.IsConflict(err), "%s by %s: got %v", next.action, next.actor, err)
			}

			after, _ := f.repo.GetRequest(context.Background(), req.ID)
			resAfter, _ := f.repo.GetResource(context.Background(), r.ID)
			assert.Equal(t, before, after)
			assert.Equal(t, resBefore, resAfter)
		})
	}
}

func TestTransition_CancelAfterAcceptIsConflict(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 1)
	_, err := f.act(req.ID, "owner", ActionAccept)
	require.NoError(t, err)

	_, err = f.act(req.ID, "rider", ActionCancel)
	assert.True(t, types.IsConflict(err))
	stored, _ := f.repo.GetRequest(context.Background(), req.ID)
	assert.Equal(t, StatusAccepted, stored.Status)
}

func TestTransition_BadInput(t *testing.T) {
	f := newFixture(t, 30)
	_, err := f.act("nope", "owner", ActionAccept)
	assert.True(t, types.IsNotFound(err))
	_, err = f.act("nope", "owner", "APPROVE")
	assert.True(t, types.IsValidation(err))
}

func TestAccept_InsufficientCapacityKeepsRequestPending(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	a := f.propose(t, r.ID, "alice", 2)
	b := f.propose(t, r.ID, "bob", 1)

	_, err := f.act(a.ID, "owner", ActionAccept)
	require.NoError(t, err)

	_, err = f.act(b.ID, "owner", ActionAccept)
	var capErr types.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 0, capErr.Available)
	assert.Equal(t, 1, capErr.Requested)

	stored, _ := f.repo.GetRequest(context.Background(), b.ID)
	assert.Equal(t, StatusPending, stored.Status)

	// still actionable
	_, err = f.act(b.ID, "bob", ActionCancel)
	assert.NoError(t, err)
}

func TestAccept_OnClosedResourceIsRefused(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 1)
	_, err := f.svc.Close(context.Background(), CloseCommand{ResourceID: r.ID, ActorID: "owner"})
	require.NoError(t, err)

	_, err = f.act(req.ID, "owner", ActionAccept)
	assert.True(t, types.IsValidation(err))
	_, err = f.act(req.ID, "owner", ActionReject)
	assert.NoError(t, err)
}

func TestClose(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	_, err := f.svc.Close(context.Background(), CloseCommand{ResourceID: r.ID, ActorID: "rider"})
	assert.True(t, types.IsUnauthorized(err))

	closed, err := f.svc.Close(context.Background(), CloseCommand{ResourceID: r.ID, ActorID: "owner"})
	require.NoError(t, err)
	assert.Equal(t, ResourceClosed, closed.Status)
	assert.Equal(t, 1, closed.Version)

	_, err = f.svc.Close(context.Background(), CloseCommand{ResourceID: r.ID, ActorID: "owner"})
	assert.True(t, types.IsConflict(err))
}

// Two riders each ask for both seats of a two-seat ride and the owner accepts both at once.
func TestConcurrentAccept_ExactlyOneWins(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	a := f.propose(t, r.ID, "alice", 2)
	b := f.propose(t, r.ID, "bob", 2)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, id := range []types.ID{a.ID, b.ID} {
		wg.Add(1)
		go func(id types.ID) {
			defer wg.Done()
			_, err := f.act(id, "owner", ActionAccept)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	success, capacity := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			success++
		case types.IsCapacity(err):
			capacity++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, capacity)

	stored, err := f.repo.GetResource(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AvailableSpace)
	assert.Equal(t, ResourceFullyBooked, stored.Status)
}

func TestConcurrentProposeAndAccept_NeverOvercommits(t *testing.T) {
	const seats, riders = 5, 20
	f := newFixture(t, 50)
	r := f.ride(t, "owner", seats)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			units := 1 + i%2
			res, err := f.svc.Propose(ctx, ProposeCommand{ResourceID: r.ID, RequesterID: types.ID(fmt.Sprintf("rider-%d", i)), Units: units})
			if err != nil {
				return
			}
			if _, err := f.act(res.Request.ID, "owner", ActionAccept); err == nil {
				mu.Lock()
				accepted += units
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	stored, err := f.repo.GetResource(ctx, r.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, accepted, seats)
	assert.Equal(t, seats-accepted, stored.AvailableSpace)
	assert.GreaterOrEqual(t, stored.AvailableSpace, 0)
}

func TestConversation_SeededOncePerPair(t *testing.T) {
	f := newFixture(t, 30)
	first := f.ride(t, "owner", 2)
	second := f.ride(t, "owner", 2)

	req1 := f.propose(t, first.ID, "rider", 1)
	_, err := f.act(req1.ID, "owner", ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, 1, f.convs.Count())

	req2 := f.propose(t, second.ID, "rider", 1)
	_, err = f.act(req2.ID, "owner", ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, 1, f.convs.Count())

	c, err := f.convs.FindByParticipants(context.Background(), "owner", "rider")
	require.NoError(t, err)
	assert.Equal(t, first.ID, c.ResourceID)
	msgs, err := f.convs.Messages(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Automatic)
	assert.Equal(t, types.ID("owner"), msgs[0].SenderID)
}

func TestEffects_FailuresAreSwallowed(t *testing.T) {
	f := newFixture(t, 30)
	f.notes.err = errors.New("smtp down")
	r := f.ride(t, "owner", 2)

	res, err := f.svc.Propose(context.Background(), ProposeCommand{ResourceID: r.ID, RequesterID: "rider", Units: 1})
	require.NoError(t, err)
	require.Len(t, res.Effects, 1)
	assert.Equal(t, "smtp down", res.Effects[0].Err)

	acc, err := f.act(res.Request.ID, "owner", ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, acc.Request.Status)
	assert.Equal(t, "smtp down", acc.Effects[0].Err)
	assert.Equal(t, "smtp down", acc.Effects[1].Err)
	assert.Empty(t, acc.Effects[2].Err, "conversation seeding is independent of notifications")
}

func TestEvents_AuditTrail(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 2)
	req := f.propose(t, r.ID, "rider", 1)
	_, err := f.act(req.ID, "owner", ActionAccept)
	require.NoError(t, err)

	events := f.repo.Events()
	require.Len(t, events, 2)
	assert.Equal(t, Status(""), events[0].FromStatus)
	assert.Equal(t, StatusPending, events[0].ToStatus)
	assert.Equal(t, StatusPending, events[1].FromStatus)
	assert.Equal(t, StatusAccepted, events[1].ToStatus)
	assert.Equal(t, types.ID("owner"), events[1].ActorID)
}

func TestMemStore_RollsBackFailedUnitOfWork(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, m.CreateResource(ctx, &Resource{ID: "r1", Capacity: 2, AvailableSpace: 2, Status: ResourceOpen, CreatedAt: now}))

	boom := errors.New("boom")
	err := m.WithinTx(ctx, func(ctx context.Context) error {
		r, err := m.LockResource(ctx, "r1")
		require.NoError(t, err)
		r.AvailableSpace = 0
		ok, err := m.UpdateResource(ctx, r, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, m.AppendEvent(ctx, &Event{RequestID: "x", ToStatus: StatusPending}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	r, err := m.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.AvailableSpace)
	assert.Equal(t, 0, r.Version)
	assert.Empty(t, m.Events())
}

func TestListRequestsAndGetRequest_Visibility(t *testing.T) {
	f := newFixture(t, 30)
	r := f.ride(t, "owner", 3)
	a := f.propose(t, r.ID, "alice", 1)
	f.propose(t, r.ID, "bob", 1)
	ctx := context.Background()

	list, err := f.svc.ListRequests(ctx, r.ID, "owner")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.ListRequests(ctx, r.ID, "alice")
	assert.True(t, types.IsUnauthorized(err))

	got, err := f.svc.GetRequest(ctx, a.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	_, err = f.svc.GetRequest(ctx, a.ID, "owner")
	assert.NoError(t, err)
	_, err = f.svc.GetRequest(ctx, a.ID, "bob")
	assert.True(t, types.IsUnauthorized(err))
}
