package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/models"
)

const getOrderQuery = `SELECT id, status, driver_id FROM orders WHERE id = $1`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetOrder returns (nil, nil) when the order does not exist.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var (
		o        models.Order
		driverID sql.NullString
	)

	err := r.db.QueryRowContext(ctx, getOrderQuery, orderID).Scan(&o.ID, &o.Status, &driverID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewOrderLookupFailedError(orderID, err)
	}

	if driverID.Valid {
		o.DriverID = &driverID.String
	}
	return &o, nil
}
