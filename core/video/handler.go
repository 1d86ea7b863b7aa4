package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/enrollment"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

// visibleCourse reports a missing error for unknown courses and for
// unpublished ones unless the caller is an admin.
func visibleCourse(ctx context.Context, db sqlx.ExtContext, id string) error {
	c, err := course.Fetch(ctx, db, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return weberr.NotFound(err)
		}
		return fmt.Errorf("fetching course[%s]: %w", id, err)
	}

	if !c.Published {
		if clm, err := claims.Get(ctx); err != nil || !clm.IsAdmin() {
			return weberr.NotFound(fmt.Errorf("course[%s] is not published", id))
		}
	}
	return nil
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NotFound(err)
		}

		if err := visibleCourse(ctx, db, courseID); err != nil {
			return err
		}

		vs, err := ListByCourse(ctx, db, courseID)
		if err != nil {
			return fmt.Errorf("listing videos: %w", err)
		}

		return web.Respond(ctx, w, vs, http.StatusOK)
	}
}

// HandleShow hands out the stream location of free videos to everyone and of
// the other videos to the users enrolled in their course.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video[%s]: %w", id, err)
		}

		if err := visibleCourse(ctx, db, v.CourseID); err != nil {
			return err
		}

		if v.Free {
			return web.Respond(ctx, w, Stream{Video: v, URL: v.URL}, http.StatusOK)
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if !clm.IsAdmin() {
			ok, err := enrollment.Has(ctx, db, clm.UserID, v.CourseID)
			if err != nil {
				return err
			}
			if !ok {
				return weberr.Forbidden(fmt.Errorf("user[%s] is not enrolled in course[%s]", clm.UserID, v.CourseID))
			}
		}

		return web.Respond(ctx, w, Stream{Video: v, URL: v.URL}, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var vn VideoNew
		if err := web.Decode(w, r, &vn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(vn); err != nil {
			return weberr.Invalid(err)
		}

		if _, err := course.Fetch(ctx, db, vn.CourseID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.Invalid(fmt.Errorf("course[%s] does not exist", vn.CourseID))
			}
			return fmt.Errorf("fetching course[%s]: %w", vn.CourseID, err)
		}

		now := time.Now().UTC()
		v := Video{
			ID:          validate.GenerateID(),
			CourseID:    vn.CourseID,
			Index:       vn.Index,
			Name:        vn.Name,
			Description: vn.Description,
			Free:        vn.Free,
			URL:         vn.URL,
			ImageURL:    vn.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
		}

		if err := Create(ctx, db, v); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(fmt.Errorf("course[%s] already has a video at index %d", v.CourseID, v.Index))
			}
			return fmt.Errorf("creating video: %w", err)
		}

		return web.Respond(ctx, w, Stream{Video: v, URL: v.URL}, http.StatusCreated)
	}
}
