// README: Resources, capacity requests and the request state flow.
package matching

import (
	"time"

	"relay/internal/types"
)

type Kind string

const (
	KindRide    Kind = "RIDE"
	KindPackage Kind = "PACKAGE"
)

type ResourceStatus string

const (
	ResourceOpen            ResourceStatus = "OPEN"
	ResourcePartiallyBooked ResourceStatus = "PARTIALLY_BOOKED"
	ResourceFullyBooked     ResourceStatus = "FULLY_BOOKED"
	ResourceClosed          ResourceStatus = "CLOSED"
)

// AcceptsProposals reports whether new requests may be made against the resource.
func (s ResourceStatus) AcceptsProposals() bool {
	return s == ResourceOpen || s == ResourcePartiallyBooked
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionReject Action = "REJECT"
	ActionCancel Action = "CANCEL"
)

var actionTargets = map[Action]Status{
	ActionAccept: StatusAccepted,
	ActionReject: StatusRejected,
	ActionCancel: StatusCancelled,
}

// AllowedTransitions represents the request state flow as code. Terminal states have no entry.
var AllowedTransitions = map[Status][]Status{
	StatusPending: {StatusAccepted, StatusRejected, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	_, ok := AllowedTransitions[s]
	return !ok
}

// Resource is a ride with seats or a package waiting for a carrier.
// AvailableSpace only ever decreases, and only through an accepted request.
type Resource struct {
	ID             types.ID       `json:"id"`
	Kind           Kind           `json:"kind"`
	OwnerID        types.ID       `json:"owner_id"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	DistanceKm     float64        `json:"distance_km"`
	DistanceMethod string         `json:"distance_method"`
	VehicleClass   string         `json:"vehicle_class,omitempty"`
	WeightKg       float64        `json:"weight_kg,omitempty"`
	Dimensions     string         `json:"dimensions,omitempty"`
	TotalPrice     types.Money    `json:"total_price"`
	Capacity       int            `json:"capacity"`
	AvailableSpace int            `json:"available_space"`
	Status         ResourceStatus `json:"status"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Request struct {
	ID          types.ID    `json:"id"`
	ResourceID  types.ID    `json:"resource_id"`
	RequesterID types.ID    `json:"requester_id"`
	Units       int         `json:"units"`
	Status      Status      `json:"status"`
	Price       types.Money `json:"price"`
	Message     string      `json:"message,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	AcceptedAt  *time.Time  `json:"accepted_at,omitempty"`
	RejectedAt  *time.Time  `json:"rejected_at,omitempty"`
}

// Event is the audit row written next to every request status change.
type Event struct {
	ID         int64
	RequestID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorID    types.ID
	Reason     string
	CreatedAt  time.Time
}
