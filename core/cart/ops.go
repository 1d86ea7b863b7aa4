package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/enrollment"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

var (
	ErrCourseNotFound  = errors.New("course does not exist")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

// Add puts courseID in the cart of userID. When the course is already there
// the stored item is returned with created set to false.
func Add(ctx context.Context, db sqlx.ExtContext, userID, courseID string) (it Item, created bool, err error) {
	c, err := course.Fetch(ctx, db, courseID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return Item{}, false, ErrCourseNotFound
	case err != nil:
		return Item{}, false, err
	case !c.Published:
		return Item{}, false, ErrCourseNotFound
	}

	enrolled, err := enrollment.Has(ctx, db, userID, courseID)
	if err != nil {
		return Item{}, false, err
	}
	if enrolled {
		return Item{}, false, ErrAlreadyEnrolled
	}

	it, err = FetchItem(ctx, db, userID, courseID)
	if err == nil {
		return it, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return Item{}, false, err
	}

	it = Item{
		ID:        validate.GenerateID(),
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}

	if err := CreateItem(ctx, db, it); err != nil {
		if !database.IsUniqueViolation(err) {
			return Item{}, false, err
		}

		// A concurrent add won the race, report its row.
		it, err = FetchItem(ctx, db, userID, courseID)
		if err != nil {
			return Item{}, false, fmt.Errorf("refetching raced cart item: %w", err)
		}
		return it, false, nil
	}

	return it, true, nil
}

// Remove deletes itemID if it exists and belongs to userID, otherwise it
// returns database.ErrNotFound.
func Remove(ctx context.Context, db sqlx.ExtContext, userID, itemID string) error {
	return DeleteItem(ctx, db, userID, itemID)
}

// List returns the cart with its total computed from current course prices.
func List(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	ls, err := FetchLines(ctx, db, userID)
	if err != nil {
		return Cart{}, err
	}

	crt := Cart{Items: ls, Count: len(ls)}
	for _, l := range ls {
		crt.Total += l.Course.Price
	}
	return crt, nil
}

// Clear empties the cart. Only order fulfillment calls it, after payment.
func Clear(ctx context.Context, db sqlx.ExtContext, userID string) error {
	return Delete(ctx, db, userID)
}
