package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// LeaseStore guards the finalization sweep against concurrent runs across
// instances. A lease row is acquired before a sweep and refreshed by TTL;
// losing the race means another instance is already sweeping.
type LeaseStore interface {
	// Acquire takes the named lease for holder if it is free or expired.
	// Returns false when another holder still owns it.
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)

	// Release frees the lease if holder still owns it.
	Release(ctx context.Context, name, holder string) error
}

type leaseStore struct {
	db *database.DB
}

func NewLeaseStore(db *database.DB) LeaseStore {
	return &leaseStore{db: db}
}

// Acquire implements LeaseStore. The UPSERT only steals the row when the
// previous lease has expired, so exactly one holder wins under contention.
func (l *leaseStore) Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		INSERT INTO scheduler_leases (name, holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
		WHERE scheduler_leases.expires_at < NOW()
		   OR scheduler_leases.holder = EXCLUDED.holder
		RETURNING holder
	`

	var got string
	err := q.QueryRow(ctx, query, name, holder, time.Now().Add(ttl)).Scan(&got)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}

	return got == holder, nil
}

// Release implements LeaseStore.
func (l *leaseStore) Release(ctx context.Context, name, holder string) error {
	q := GetQuerier(ctx, l.db)

	query := `
		UPDATE scheduler_leases
		SET expires_at = NOW()
		WHERE name = $1 AND holder = $2
	`

	if _, err := q.Exec(ctx, query, name, holder); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", name, err)
	}

	return nil
}
