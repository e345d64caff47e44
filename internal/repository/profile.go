// internal/repository/profile.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const getUserTypesQuery = `SELECT id, user_type FROM profiles WHERE id = ANY($1)`

const profileCachePrefix = "profile:type:"

type ProfileRepository struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewProfileRepository builds the profile reader. A nil redis client disables caching.
func NewProfileRepository(db *sql.DB, rdb *redis.Client, ttl time.Duration, log logger.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile_repository"}),
	}
}

func cacheKey(userID string) string {
	return profileCachePrefix + userID
}

// GetUserTypes returns user_type keyed by id. Ids without a profile, or whose
// profile has no user_type, are absent from the result.
func (r *ProfileRepository) GetUserTypes(ctx context.Context, userIDs []string) (map[string]string, error) {
	types := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return types, nil
	}

	missing := r.fromCache(ctx, userIDs, types)
	if len(missing) == 0 {
		return types, nil
	}

	rows, err := r.db.QueryContext(ctx, getUserTypesQuery, pq.Array(missing))
	if err != nil {
		return nil, errors.NewProfileLookupFailedError(err)
	}
	defer rows.Close()

	fetched := make(map[string]string, len(missing))
	for rows.Next() {
		var id string
		var userType sql.NullString
		if err := rows.Scan(&id, &userType); err != nil {
			return nil, errors.NewProfileLookupFailedError(err)
		}
		// untyped profiles are never drivers; leave them out rather than cache ""
		if !userType.Valid || userType.String == "" {
			continue
		}
		fetched[id] = userType.String
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewProfileLookupFailedError(err)
	}

	for _, id := range missing {
		if t, ok := fetched[id]; ok {
			types[id] = t
			r.toCache(ctx, id, t)
		}
	}

	return types, nil
}

// fromCache fills types from redis and returns the ids it could not resolve.
func (r *ProfileRepository) fromCache(ctx context.Context, userIDs []string, types map[string]string) []string {
	if r.redis == nil {
		return userIDs
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cacheKey(id)
	}

	vals, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warn("profile cache read failed, falling back to database", map[string]interface{}{
			"error": err,
		})
		return userIDs
	}

	var missing []string
	for i, id := range userIDs {
		if s, ok := vals[i].(string); ok && s != "" {
			types[id] = s
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

func (r *ProfileRepository) toCache(ctx context.Context, userID, userType string) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Set(ctx, cacheKey(userID), userType, r.ttl).Err(); err != nil {
		r.logger.Debug("profile cache write failed", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
	}
}
