// internal/repository/subscription.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	findSubscriptionsQuery = `SELECT id, user_id, endpoint, p256dh, auth, created_at, updated_at
FROM push_subscriptions WHERE user_id = ANY($1) ORDER BY user_id, created_at`

	deleteByEndpointQuery = `DELETE FROM push_subscriptions WHERE endpoint = $1`

	deleteForUserQuery = `DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`

	upsertSubscriptionQuery = `INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id, endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at`
)

type SubscriptionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FindByUserIDs returns every subscription owned by any of the given users.
func (r *SubscriptionRepository) FindByUserIDs(ctx context.Context, userIDs []string) ([]models.PushSubscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, findSubscriptionsQuery, pq.Array(userIDs))
	if err != nil {
		return nil, errors.NewSubscriptionLookupFailedError(err)
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var s models.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.NewSubscriptionLookupFailedError(err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSubscriptionLookupFailedError(err)
	}

	return subs, nil
}

// DeleteByEndpoint removes the subscription for a dead endpoint. Deleting an
// endpoint that is already gone is not an error.
func (r *SubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteByEndpointQuery, endpoint)
	if err != nil {
		return 0, errors.NewSubscriptionWriteFailedError("delete_by_endpoint", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteForUser removes one of the user's own subscriptions.
func (r *SubscriptionRepository) DeleteForUser(ctx context.Context, userID, endpoint string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteForUserQuery, userID, endpoint)
	if err != nil {
		return false, errors.NewSubscriptionWriteFailedError("delete_for_user", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Upsert registers a subscription, refreshing the keys when the user already
// holds the same endpoint.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx, upsertSubscriptionQuery,
		sub.ID, sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, r.now(),
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return errors.NewSubscriptionWriteFailedError("upsert", err)
	}
	return nil
}
