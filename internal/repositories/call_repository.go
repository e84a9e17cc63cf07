package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

var ErrCallNotFound = errors.New("call not found")

// CallRepository is the Postgres-backed call directory. It is the system
// of record for call existence, membership and lifecycle timestamps.
type CallRepository struct {
	db *sql.DB
}

func NewCallRepository(db *sql.DB) *CallRepository {
	return &CallRepository{db: db}
}

// Query returns every call where the user is creator or member and a
// start time has been set, newest start first.
func (r *CallRepository) Query(ctx context.Context, userID string) ([]models.CallRecord, error) {
	const query = `
	SELECT
		id,
		created_by,
		starts_at,
		ended_at,
		members,
		description,
		created_at,
		updated_at
	FROM calls
	WHERE starts_at IS NOT NULL
	  AND (created_by = $1 OR $1 = ANY(members))
	ORDER BY starts_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []models.CallRecord
	for rows.Next() {
		var call models.CallRecord
		err := rows.Scan(
			&call.ID,
			&call.CreatedBy,
			&call.StartsAt,
			&call.EndedAt,
			pq.Array(&call.Members),
			&call.Description,
			&call.CreatedAt,
			&call.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// GetOrCreate inserts the call if it does not exist and returns the
// stored record either way. The conflict arm leaves the existing row
// untouched apart from updated_at, which makes the operation safe to
// retry and safe to race.
func (r *CallRepository) GetOrCreate(ctx context.Context, id string, params models.CreateCallParams) (*models.CallRecord, error) {
	const query = `
	INSERT INTO calls (
		id,
		created_by,
		starts_at,
		members,
		description,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3::timestamptz, $4, $5, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE SET updated_at = NOW()
	RETURNING id, created_by, starts_at, ended_at, members, description, created_at, updated_at
	`

	var call models.CallRecord
	err := r.db.QueryRowContext(
		ctx,
		query,
		id,
		params.CreatedBy,
		params.StartsAt,
		pq.Array(params.Members),
		params.Description,
	).Scan(
		&call.ID,
		&call.CreatedBy,
		&call.StartsAt,
		&call.EndedAt,
		pq.Array(&call.Members),
		&call.Description,
		&call.CreatedAt,
		&call.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &call, nil
}

// Get returns a single call by identifier.
func (r *CallRepository) Get(ctx context.Context, id string) (*models.CallRecord, error) {
	const query = `
	SELECT id, created_by, starts_at, ended_at, members, description, created_at, updated_at
	FROM calls
	WHERE id = $1
	LIMIT 1
	`

	var call models.CallRecord
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&call.ID,
		&call.CreatedBy,
		&call.StartsAt,
		&call.EndedAt,
		pq.Array(&call.Members),
		&call.Description,
		&call.CreatedAt,
		&call.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}

	return &call, nil
}

// AddMember records the user in the call's membership set.
func (r *CallRepository) AddMember(ctx context.Context, id string, userID string) error {
	const query = `
	UPDATE calls
	SET members = array_append(members, $1), updated_at = NOW()
	WHERE id = $2 AND NOT ($1 = ANY(members))
	`

	_, err := r.db.ExecContext(ctx, query, userID, id)
	return err
}

// MarkEnded sets the ended timestamp, after which the call is always
// classified as past.
func (r *CallRepository) MarkEnded(ctx context.Context, id string) error {
	const query = `
	UPDATE calls
	SET ended_at = NOW(), updated_at = NOW()
	WHERE id = $1 AND ended_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
