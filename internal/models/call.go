package models

import "time"

// CallRecord is a single meeting call as stored in the call directory.
// The identifier is caller-supplied at creation and globally unique.
type CallRecord struct {
	ID          string     `db:"id"`
	CreatedBy   string     `db:"created_by"`
	StartsAt    *time.Time `db:"starts_at"`
	EndedAt     *time.Time `db:"ended_at"`
	Members     []string   `db:"members"`
	Description string     `db:"description"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Ended reports whether the call counts as ended at the given instant.
// A set ended timestamp always wins, regardless of the start time.
func (c *CallRecord) Ended(now time.Time) bool {
	if c.EndedAt != nil {
		return true
	}
	return c.StartsAt != nil && c.StartsAt.Before(now)
}

// Upcoming reports whether the call is still ahead of the given instant.
func (c *CallRecord) Upcoming(now time.Time) bool {
	if c.EndedAt != nil {
		return false
	}
	return c.StartsAt != nil && c.StartsAt.After(now)
}

// CreateCallParams is the payload of the idempotent get-or-create. The
// start time travels as an RFC 3339 string, matching the directory wire
// format.
type CreateCallParams struct {
	CreatedBy   string
	StartsAt    string
	Members     []string
	Description string
}

// CallListSnapshot is the immutable result of one call-list fetch.
// Each refresh produces a brand-new snapshot; classification into
// ended/upcoming is derived at read time, never stored here.
type CallListSnapshot struct {
	Calls     []CallRecord
	FetchedAt time.Time
}

// Identity is the authenticated user on whose behalf an operation runs.
type Identity struct {
	UserID   string
	Username string
}
