package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/core/cart"
	"github.com/irsalhamdi/course-market/core/enrollment"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/events"
	"github.com/irsalhamdi/course-market/metrics"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("cart empty")

// Deps are shared by the checkout and payment handlers.
type Deps struct {
	DB      *sqlx.DB
	Log     logrus.FieldLogger
	Metrics *metrics.Metrics
	Events  events.Publisher
}

// prepare turns the cart of userID into a pending order. Prices are read once
// here and frozen into the items. The order and its items are written in a
// single transaction. The cart itself is left untouched.
func prepare(ctx context.Context, db *sqlx.DB, userID string, provider Provider) (Order, []cart.Line, error) {
	lines, err := cart.FetchLines(ctx, db, userID)
	if err != nil {
		return Order{}, nil, fmt.Errorf("fetching cart: %w", err)
	}

	if len(lines) == 0 {
		return Order{}, nil, ErrEmptyCart
	}

	now := time.Now().UTC()
	ord := Order{
		ID:        validate.GenerateID(),
		UserID:    userID,
		Status:    Pending,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     make([]Item, 0, len(lines)),
	}

	for _, l := range lines {
		ord.Amount += l.Course.Price
		ord.Items = append(ord.Items, Item{
			OrderID:   ord.ID,
			CourseID:  l.Course.ID,
			Price:     l.Course.Price,
			CreatedAt: now,
		})
	}

	err = database.Transaction(ctx, db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return err
		}

		for _, it := range ord.Items {
			if err := CreateItem(ctx, tx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, nil, fmt.Errorf("creating order for user[%s]: %w", userID, err)
	}

	return ord, lines, nil
}

// attach stores the provider reference of ord. Orders without one are never
// reached by the payment callbacks.
func attach(ctx context.Context, db sqlx.ExtContext, ord *Order, providerID, paymentRef string) error {
	up := ProviderUp{
		ID:         ord.ID,
		ProviderID: providerID,
		PaymentRef: paymentRef,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := UpdateProvider(ctx, db, up); err != nil {
		return err
	}

	ord.ProviderID = providerID
	ord.PaymentRef = paymentRef
	ord.UpdatedAt = up.UpdatedAt
	return nil
}

// Fulfill marks orderID paid, grants every course of the order to its owner
// and empties the owner's cart. It is safe to run more than once for the same
// order: the status is overwritten and existing enrollments are left alone.
// A userID other than the owner is not trusted, it is reported back in
// IgnoredUserID. database.ErrNotFound is returned for unknown orders.
func Fulfill(ctx context.Context, db *sqlx.DB, orderID, userID string) (Fulfillment, error) {
	f := Fulfillment{OrderID: orderID}

	err := database.Transaction(ctx, db, func(tx sqlx.ExtContext) error {
		ord, err := Fetch(ctx, tx, orderID)
		if err != nil {
			return err
		}

		f.UserID = ord.UserID
		if userID != "" && userID != ord.UserID {
			f.IgnoredUserID = userID
		}

		now := time.Now().UTC()
		if err := UpdateStatus(ctx, tx, StatusUp{ID: ord.ID, Status: Paid, UpdatedAt: now}); err != nil {
			return err
		}

		items, err := FetchItems(ctx, tx, ord.ID)
		if err != nil {
			return err
		}

		for _, it := range items {
			f.CourseIDs = append(f.CourseIDs, it.CourseID)

			created, err := enrollment.Grant(ctx, tx, enrollment.Enrollment{
				UserID:    f.UserID,
				CourseID:  it.CourseID,
				OrderID:   &ord.ID,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			if created {
				f.Granted = append(f.Granted, it.CourseID)
			}
		}

		if err := cart.Clear(ctx, tx, f.UserID); err != nil {
			return fmt.Errorf("flushing cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return Fulfillment{}, fmt.Errorf("fulfilling order[%s]: %w", orderID, err)
	}

	return f, nil
}

// fulfilled records and announces a fulfillment. Publishing is best effort.
func (d Deps) fulfilled(ctx context.Context, f Fulfillment, provider Provider) {
	d.Metrics.EnrollmentsGranted(len(f.Granted))

	d.Log.WithFields(logrus.Fields{
		"order_id": f.OrderID,
		"user_id":  f.UserID,
		"provider": provider,
		"courses":  len(f.CourseIDs),
		"granted":  len(f.Granted),
	}).Info("order fulfilled")

	if d.Events == nil {
		return
	}

	evt := events.OrderPaid{
		EventID:   validate.GenerateID(),
		OrderID:   f.OrderID,
		UserID:    f.UserID,
		Provider:  string(provider),
		CourseIDs: f.CourseIDs,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.Events.PublishOrderPaid(ctx, evt); err != nil {
		d.Log.WithError(err).WithField("order_id", f.OrderID).Warn("publishing order paid event")
	}
}
