package enrollment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

// HandleCheck answers whether the caller owns a course. Anonymous callers
// simply own nothing.
func HandleCheck(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return web.Respond(ctx, w, Check{}, http.StatusOK)
		}

		courseID := web.Query(r, "courseId")
		if courseID == "" {
			return weberr.Invalid(errors.New("courseId is required"))
		}

		if err := validate.CheckID(courseID); err != nil {
			return web.Respond(ctx, w, Check{}, http.StatusOK)
		}

		ok, err := Has(ctx, db, clm.UserID, courseID)
		if err != nil {
			return fmt.Errorf("checking enrollment: %w", err)
		}

		return web.Respond(ctx, w, Check{IsEnrolled: ok}, http.StatusOK)
	}
}
