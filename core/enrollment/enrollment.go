// Package enrollment is the ledger of which users may access which courses.
// A row existing for (user, course) is the only access check in the system.
package enrollment

import "time"

type Enrollment struct {
	UserID    string    `json:"userId" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	OrderID   *string   `json:"orderId,omitempty" db:"order_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Check struct {
	IsEnrolled bool `json:"isEnrolled"`
}
