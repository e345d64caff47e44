package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"
	"delivery-notifier/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subscriptionColumns = []string{"id", "user_id", "endpoint", "p256dh", "auth", "created_at", "updated_at"}

func TestSubscriptionRepository_FindByUserIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(subscriptionColumns).
		AddRow("s1", "u1", "https://push.example/a", "pk1", "au1", now, now).
		AddRow("s2", "u1", "https://push.example/b", "pk2", "au2", now, now).
		AddRow("s3", "u2", "https://push.example/c", "pk3", "au3", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(findSubscriptionsQuery)).
		WithArgs(pq.Array([]string{"u1", "u2", "u3"})).
		WillReturnRows(rows)

	repo := NewSubscriptionRepository(db)
	subs, err := repo.FindByUserIDs(context.Background(), []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "https://push.example/b", subs[1].Endpoint)
	assert.Equal(t, models.SubscriptionKeys{P256dh: "pk3", Auth: "au3"}, subs[2].Keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_FindByUserIDs_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subs, err := NewSubscriptionRepository(db).FindByUserIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_FindByUserIDs_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(findSubscriptionsQuery)).
		WillReturnError(stderrors.New("connection reset"))

	_, err = NewSubscriptionRepository(db).FindByUserIDs(context.Background(), []string{"u1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSubscriptionLookupFailed, errors.AsStandardError(err).Code)
}

func TestSubscriptionRepository_DeleteByEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(deleteByEndpointQuery)).
		WithArgs("https://push.example/gone").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.DeleteByEndpoint(context.Background(), "https://push.example/gone")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// already deleted
	mock.ExpectExec(regexp.QuoteMeta(deleteByEndpointQuery)).
		WithArgs("https://push.example/gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = repo.DeleteByEndpoint(context.Background(), "https://push.example/gone")
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(regexp.QuoteMeta(deleteByEndpointQuery)).
		WillReturnError(stderrors.New("read only"))
	_, err = repo.DeleteByEndpoint(context.Background(), "x")
	assert.Equal(t, errors.ErrCodeSubscriptionWriteFailed, errors.AsStandardError(err).Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	created := fixed.Add(-time.Hour)
	repo := NewSubscriptionRepository(db)
	repo.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta(upsertSubscriptionQuery)).
		WithArgs(sqlmock.AnyArg(), "u1", "https://push.example/a", "pk", "au", fixed).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("existing-id", created, fixed))

	sub := &models.PushSubscription{
		UserID:   "u1",
		Endpoint: "https://push.example/a",
		Keys:     models.SubscriptionKeys{P256dh: "pk", Auth: "au"},
	}
	require.NoError(t, repo.Upsert(context.Background(), sub))
	assert.Equal(t, "existing-id", sub.ID)
	assert.Equal(t, created, sub.CreatedAt)
	assert.Equal(t, fixed, sub.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_DeleteForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(deleteForUserQuery)).
		WithArgs("u1", "https://push.example/a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := NewSubscriptionRepository(db).DeleteForUser(context.Background(), "u1", "https://push.example/a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetOrder(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(mock sqlmock.Sqlmock)
		wantNil    bool
		wantDriver bool
		wantErr    bool
	}{
		{
			name: "pending without driver",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(getOrderQuery)).WithArgs("o1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "status", "driver_id"}).AddRow("o1", "pending", nil))
			},
		},
		{
			name: "assigned",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(getOrderQuery)).WithArgs("o1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "status", "driver_id"}).AddRow("o1", "pending", "d9"))
			},
			wantDriver: true,
		},
		{
			name: "not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(getOrderQuery)).WithArgs("o1").WillReturnError(sql.ErrNoRows)
			},
			wantNil: true,
		},
		{
			name: "store error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(getOrderQuery)).WithArgs("o1").WillReturnError(stderrors.New("timeout"))
			},
			wantNil: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			order, err := NewOrderRepository(db).GetOrder(context.Background(), "o1")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeOrderLookupFailed, errors.AsStandardError(err).Code)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, order)
				return
			}
			require.NotNil(t, order)
			assert.Equal(t, "pending", order.Status)
			assert.Equal(t, tt.wantDriver, order.DriverID != nil)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProfileRepository_GetUserTypes_CacheMissThenFill(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectMGet("profile:type:u1", "profile:type:u2", "profile:type:u3").
		SetVal([]interface{}{"driver", nil, nil})

	mock.ExpectQuery(regexp.QuoteMeta(getUserTypesQuery)).
		WithArgs(pq.Array([]string{"u2", "u3"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_type"}).AddRow("u2", "customer"))

	redisMock.ExpectSet("profile:type:u2", "customer", 5*time.Minute).SetVal("OK")

	repo := NewProfileRepository(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	types, err := repo.GetUserTypes(context.Background(), []string{"u1", "u2", "u3"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"u1": "driver", "u2": "customer"}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProfileRepository_GetUserTypes_AllCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectMGet("profile:type:u1").SetVal([]interface{}{"driver"})

	repo := NewProfileRepository(db, rdb, time.Minute, logger.NewTestLogger(t))
	types, err := repo.GetUserTypes(context.Background(), []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, "driver", types["u1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetUserTypes_CacheDownFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectMGet("profile:type:u1").SetErr(stderrors.New("dial tcp: refused"))
	mock.ExpectQuery(regexp.QuoteMeta(getUserTypesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_type"}).AddRow("u1", "driver"))
	redisMock.ExpectSet("profile:type:u1", "driver", time.Minute).SetErr(stderrors.New("dial tcp: refused"))

	repo := NewProfileRepository(db, rdb, time.Minute, logger.NewTestLogger(t))
	types, err := repo.GetUserTypes(context.Background(), []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, "driver", types["u1"])
}

func TestProfileRepository_GetUserTypes_NoCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getUserTypesQuery)).
		WillReturnError(stderrors.New("relation \"profiles\" does not exist"))

	repo := NewProfileRepository(db, nil, time.Minute, logger.NewNoOpLogger())
	_, err = repo.GetUserTypes(context.Background(), []string{"u1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProfileLookupFailed, errors.AsStandardError(err).Code)
}

func TestProfileRepository_GetUserTypes_NullTypeIsSkipped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectMGet("profile:type:d1", "profile:type:c1").SetVal([]interface{}{nil, nil})
	mock.ExpectQuery(regexp.QuoteMeta(getUserTypesQuery)).
		WithArgs(pq.Array([]string{"d1", "c1"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_type"}).
			AddRow("d1", "driver").
			AddRow("c1", nil))
	redisMock.ExpectSet("profile:type:d1", "driver", time.Minute).SetVal("OK")

	repo := NewProfileRepository(db, rdb, time.Minute, logger.NewTestLogger(t))
	types, err := repo.GetUserTypes(context.Background(), []string{"d1", "c1"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"d1": "driver"}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
