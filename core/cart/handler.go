package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, err := List(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing cart: %w", err)
		}

		return web.Respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Invalid(err)
		}

		if err := validate.CheckID(in.CourseID); err != nil {
			return weberr.Invalid(ErrCourseNotFound)
		}

		it, created, err := Add(ctx, db, clm.UserID, in.CourseID)
		switch {
		case errors.Is(err, ErrCourseNotFound):
			return weberr.Invalid(err)
		case errors.Is(err, ErrAlreadyEnrolled):
			return weberr.Conflict(err)
		case err != nil:
			return fmt.Errorf("adding course[%s] to cart: %w", in.CourseID, err)
		}

		if !created {
			return web.Respond(ctx, w, Added{Message: "item is already in your cart", Item: it}, http.StatusOK)
		}
		return web.Respond(ctx, w, it, http.StatusCreated)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		if err := Remove(ctx, db, clm.UserID, id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithFields(map[string]any{"cart_item_id": id}))
			}
			return fmt.Errorf("removing cart item[%s]: %w", id, err)
		}

		resp := struct {
			Message string `json:"message"`
		}{"item removed from cart"}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}
