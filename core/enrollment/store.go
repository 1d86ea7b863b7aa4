package enrollment

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Has(ctx context.Context, db sqlx.ExtContext, userID, courseID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, userID, courseID); err != nil {
		return false, fmt.Errorf("checking enrollment of user[%s] in course[%s]: %w", userID, courseID, err)
	}
	return ok, nil
}

// Grant inserts e unless the pair is already enrolled, reporting whether a row
// was written. A concurrent grant of the same pair is a no-op, not an error.
func Grant(ctx context.Context, db sqlx.ExtContext, e Enrollment) (bool, error) {
	const q = `
	INSERT INTO enrollments
		(user_id, course_id, order_id, created_at)
	VALUES
		(:user_id, :course_id, :order_id, :created_at)
	ON CONFLICT (user_id, course_id) DO NOTHING`

	res, err := sqlx.NamedExecContext(ctx, db, q, e)
	if err != nil {
		return false, fmt.Errorf("granting course[%s] to user[%s]: %w", e.CourseID, e.UserID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("granting course[%s] to user[%s]: %w", e.CourseID, e.UserID, err)
	}
	return n == 1, nil
}
