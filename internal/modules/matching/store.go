// README: Matching store backed by PostgreSQL; row locks via SELECT ... FOR UPDATE inside TxRunner.
package matching

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"relay/internal/infra"
	"relay/internal/types"
)

type Store struct {
	db *infra.TxRunner
}

func NewStore(db *infra.TxRunner) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithinTx(ctx, fn)
}

const resourceColumns = `
	id, kind, owner_id, origin, destination, distance_km, distance_method,
	vehicle_class, weight_kg, dimensions, total_price, currency,
	capacity, available_space, status, version, created_at, updated_at`

const resourceSelect = `
	SELECT id, kind, owner_id, origin, destination, distance_km, distance_method,
	       vehicle_class, weight_kg, dimensions, total_price::text, currency,
	       capacity, available_space, status, version, created_at, updated_at
	FROM resources`

func (s *Store) CreateResource(ctx context.Context, r *Resource) error {
	_, err := s.db.Conn(ctx).Exec(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		string(r.ID), string(r.Kind), string(r.OwnerID), r.Origin, r.Destination, r.DistanceKm, r.DistanceMethod,
		r.VehicleClass, r.WeightKg, r.Dimensions, r.TotalPrice.Amount.String(), r.TotalPrice.Currency,
		r.Capacity, r.AvailableSpace, string(r.Status), r.Version, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *Store) GetResource(ctx context.Context, id types.ID) (*Resource, error) {
	row := s.db.Conn(ctx).QueryRow(ctx, resourceSelect+` WHERE id = $1`, string(id))
	return scanResource(row, id)
}

func (s *Store) LockResource(ctx context.Context, id types.ID) (*Resource, error) {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, resourceSelect+` WHERE id = $1 FOR UPDATE`, string(id))
	return scanResource(row, id)
}

func (s *Store) UpdateResource(ctx context.Context, r *Resource, expectedVersion int) (bool, error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `
		UPDATE resources
		SET available_space = $1,
		    status = $2,
		    updated_at = $3,
		    version = version + 1
		WHERE id = $4 AND version = $5 AND $1 >= 0`,
		r.AvailableSpace, string(r.Status), r.UpdatedAt, string(r.ID), expectedVersion,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const requestColumns = `
	id, resource_id, requester_id, units, status, price, currency,
	message, reason, created_at, updated_at, accepted_at, rejected_at`

const requestSelect = `
	SELECT id, resource_id, requester_id, units, status, price::text, currency,
	       message, reason, created_at, updated_at, accepted_at, rejected_at
	FROM capacity_requests`

func (s *Store) CreateRequest(ctx context.Context, req *Request) error {
	_, err := s.db.Conn(ctx).Exec(ctx, `
		INSERT INTO capacity_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(req.ID), string(req.ResourceID), string(req.RequesterID), req.Units, string(req.Status),
		req.Price.Amount.String(), req.Price.Currency, req.Message, req.Reason,
		req.CreatedAt, req.UpdatedAt, req.AcceptedAt, req.RejectedAt,
	)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id types.ID) (*Request, error) {
	row := s.db.Conn(ctx).QueryRow(ctx, requestSelect+` WHERE id = $1`, string(id))
	return scanRequest(row, id)
}

func (s *Store) LockRequest(ctx context.Context, id types.ID) (*Request, error) {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, requestSelect+` WHERE id = $1 FOR UPDATE`, string(id))
	return scanRequest(row, id)
}

func (s *Store) UpdateRequestStatus(ctx context.Context, req *Request, from Status) (bool, error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `
		UPDATE capacity_requests
		SET status = $1,
		    reason = $2,
		    updated_at = $3,
		    accepted_at = $4,
		    rejected_at = $5
		WHERE id = $6 AND status = $7`,
		string(req.Status), req.Reason, req.UpdatedAt, req.AcceptedAt, req.RejectedAt,
		string(req.ID), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) HasPendingRequest(ctx context.Context, resourceID, requesterID types.ID) (bool, error) {
	var exists bool
	err := s.db.Conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM capacity_requests
			WHERE resource_id = $1 AND requester_id = $2 AND status = 'PENDING'
		)`, string(resourceID), string(requesterID),
	).Scan(&exists)
	return exists, err
}

func (s *Store) ListRequests(ctx context.Context, resourceID types.ID) ([]*Request, error) {
	rows, err := s.db.Conn(ctx).Query(ctx, requestSelect+`
		WHERE resource_id = $1
		ORDER BY created_at, id`, string(resourceID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var from *string
	if e.FromStatus != "" {
		v := string(e.FromStatus)
		from = &v
	}
	return s.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO request_events (request_id, from_status, to_status, actor_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		string(e.RequestID), from, string(e.ToStatus), string(e.ActorID), e.Reason, e.CreatedAt,
	).Scan(&e.ID)
}

func scanResource(row pgx.Row, id types.ID) (*Resource, error) {
	var r Resource
	var price string
	err := row.Scan(
		&r.ID, &r.Kind, &r.OwnerID, &r.Origin, &r.Destination, &r.DistanceKm, &r.DistanceMethod,
		&r.VehicleClass, &r.WeightKg, &r.Dimensions, &price, &r.TotalPrice.Currency,
		&r.Capacity, &r.AvailableSpace, &r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NotFoundError{Resource: "resource", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if r.TotalPrice.Amount, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRequest(row pgx.Row, id types.ID) (*Request, error) {
	var req Request
	var price string
	var acceptedAt, rejectedAt *time.Time
	err := row.Scan(
		&req.ID, &req.ResourceID, &req.RequesterID, &req.Units, &req.Status, &price, &req.Price.Currency,
		&req.Message, &req.Reason, &req.CreatedAt, &req.UpdatedAt, &acceptedAt, &rejectedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NotFoundError{Resource: "request", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if req.Price.Amount, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	req.AcceptedAt, req.RejectedAt = acceptedAt, rejectedAt
	return &req, nil
}
