package order

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
)

const columns = `order_id, user_id, amount, status, provider, provider_id, payment_ref, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, amount, status, provider, provider_id, payment_ref, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :amount, :status, :provider, :provider_id, :payment_ref, :created_at, :updated_at)`

	if err := database.NamedExecContext(ctx, db, q, o); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, course_id, price, created_at)
	VALUES
		(:order_id, :course_id, :price, :created_at)`

	if err := database.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

// UpdateStatus sets the status whatever the current one is.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `UPDATE orders SET status = :status, updated_at = :updated_at WHERE order_id = :order_id`

	if err := database.NamedExecAffected(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, err)
	}
	return nil
}

func UpdateProvider(ctx context.Context, db sqlx.ExtContext, up ProviderUp) error {
	const q = `
	UPDATE orders SET
		provider_id = :provider_id,
		payment_ref = :payment_ref,
		updated_at = :updated_at
	WHERE order_id = :order_id`

	if err := database.NamedExecAffected(ctx, db, q, up); err != nil {
		return fmt.Errorf("binding order[%s] to payment[%s]: %w", up.ID, up.ProviderID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	in := struct {
		ID string `db:"order_id"`
	}{id}

	q := `SELECT ` + columns + ` FROM orders WHERE order_id = :order_id`

	var o Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &o); err != nil {
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}
	return o, nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, provider Provider, providerID string) (Order, error) {
	in := struct {
		Provider   Provider `db:"provider"`
		ProviderID string   `db:"provider_id"`
	}{provider, providerID}

	q := `SELECT ` + columns + ` FROM orders WHERE provider = :provider AND provider_id = :provider_id`

	var o Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &o); err != nil {
		return Order{}, fmt.Errorf("selecting order bound to %s payment[%s]: %w", provider, providerID, err)
	}
	return o, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	in := struct {
		ID string `db:"order_id"`
	}{orderID}

	const q = `
	SELECT order_id, course_id, price, created_at
	FROM order_items
	WHERE order_id = :order_id
	ORDER BY course_id`

	var its []Item
	if err := database.NamedQuerySlice(ctx, db, q, in, &its); err != nil {
		return nil, fmt.Errorf("selecting items of order[%s]: %w", orderID, err)
	}
	return its, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	q := `SELECT ` + columns + ` FROM orders WHERE user_id = :user_id ORDER BY created_at DESC`

	var os []Order
	if err := database.NamedQuerySlice(ctx, db, q, in, &os); err != nil {
		return nil, fmt.Errorf("selecting orders of user[%s]: %w", userID, err)
	}
	return os, nil
}

// ExpirePending relabels orders still pending since before cutoff and
// returns how many were changed.
func ExpirePending(ctx context.Context, db sqlx.ExtContext, cutoff, now time.Time) (int, error) {
	in := struct {
		Pending   Status    `db:"pending"`
		Expired   Status    `db:"expired"`
		Cutoff    time.Time `db:"cutoff"`
		UpdatedAt time.Time `db:"updated_at"`
	}{Pending, Expired, cutoff, now}

	const q = `
	UPDATE orders SET
		status = :expired,
		updated_at = :updated_at
	WHERE status = :pending AND created_at < :cutoff`

	res, err := sqlx.NamedExecContext(ctx, db, q, in)
	if err != nil {
		return 0, fmt.Errorf("expiring pending orders: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expiring pending orders: %w", err)
	}
	return int(n), nil
}
