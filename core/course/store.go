package course

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
)

const columns = `course_id, name, description, image_url, price, published, created_at, updated_at, version`

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, name, description, image_url, price, published, created_at, updated_at, version)
	VALUES
		(:course_id, :name, :description, :image_url, :price, :published, :created_at, :updated_at, :version)`

	if err := database.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

// Update writes c if its version still matches the stored one, then bumps it.
func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		published = :published,
		updated_at = :updated_at,
		version = version + 1
	WHERE course_id = :course_id AND version = :version`

	if err := database.NamedExecAffected(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	in := struct {
		ID string `db:"course_id"`
	}{id}

	q := `SELECT ` + columns + ` FROM courses WHERE course_id = :course_id`

	var c Course
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}
	return c, nil
}

func ListPublished(ctx context.Context, db sqlx.ExtContext) ([]Course, error) {
	q := `SELECT ` + columns + ` FROM courses WHERE published ORDER BY created_at DESC`

	var cs []Course
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &cs); err != nil {
		return nil, fmt.Errorf("selecting published courses: %w", err)
	}
	return cs, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Course, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT
		c.course_id, c.name, c.description, c.image_url, c.price, c.published, c.created_at, c.updated_at, c.version
	FROM courses c
	JOIN enrollments e ON e.course_id = c.course_id
	WHERE e.user_id = :user_id
	ORDER BY e.created_at, c.course_id`

	var cs []Course
	if err := database.NamedQuerySlice(ctx, db, q, in, &cs); err != nil {
		return nil, fmt.Errorf("selecting courses owned by user[%s]: %w", userID, err)
	}
	return cs, nil
}
