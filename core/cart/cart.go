package cart

import (
	"time"
)

// Item is one course a user intends to buy. A (user, course) pair appears at
// most once, courses are single-unit so there is no quantity.
type Item struct {
	ID        string    `json:"id" db:"cart_item_id"`
	UserID    string    `json:"-" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CourseSummary struct {
	ID          string `json:"id" db:"course_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	ImageURL    string `json:"imageUrl" db:"image_url"`
	Price       int    `json:"price" db:"price"`
}

// Line is an Item joined with the current data of its course.
type Line struct {
	Item
	Course CourseSummary `json:"course" db:"course"`
}

type Cart struct {
	Items []Line `json:"items"`
	Total int    `json:"total"`
	Count int    `json:"count"`
}

type ItemNew struct {
	CourseID string `json:"courseId" validate:"required"`
}

type Added struct {
	Message string `json:"message"`
	Item    Item   `json:"item"`
}
