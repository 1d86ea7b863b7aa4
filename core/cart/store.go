package cart

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
)

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items
		(cart_item_id, user_id, course_id, created_at)
	VALUES
		(:cart_item_id, :user_id, :course_id, :created_at)`

	if err := database.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting cart item: %w", err)
	}
	return nil
}

func FetchItem(ctx context.Context, db sqlx.ExtContext, userID, courseID string) (Item, error) {
	in := struct {
		UserID   string `db:"user_id"`
		CourseID string `db:"course_id"`
	}{userID, courseID}

	const q = `
	SELECT cart_item_id, user_id, course_id, created_at
	FROM cart_items
	WHERE user_id = :user_id AND course_id = :course_id`

	var it Item
	if err := database.NamedQueryStruct(ctx, db, q, in, &it); err != nil {
		return Item{}, fmt.Errorf("selecting cart item of course[%s]: %w", courseID, err)
	}
	return it, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT cart_item_id, user_id, course_id, created_at
	FROM cart_items
	WHERE user_id = :user_id
	ORDER BY created_at DESC, cart_item_id`

	var its []Item
	if err := database.NamedQuerySlice(ctx, db, q, in, &its); err != nil {
		return nil, fmt.Errorf("selecting cart items of user[%s]: %w", userID, err)
	}
	return its, nil
}

func FetchLines(ctx context.Context, db sqlx.ExtContext, userID string) ([]Line, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT
		i.cart_item_id, i.user_id, i.course_id, i.created_at,
		c.course_id AS "course.course_id",
		c.name AS "course.name",
		c.description AS "course.description",
		c.image_url AS "course.image_url",
		c.price AS "course.price"
	FROM cart_items i
	JOIN courses c ON c.course_id = i.course_id
	WHERE i.user_id = :user_id
	ORDER BY i.created_at DESC, i.cart_item_id`

	var ls []Line
	if err := database.NamedQuerySlice(ctx, db, q, in, &ls); err != nil {
		return nil, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}
	return ls, nil
}

// DeleteItem removes the item only when it belongs to userID.
func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID, itemID string) error {
	in := struct {
		ID     string `db:"cart_item_id"`
		UserID string `db:"user_id"`
	}{itemID, userID}

	const q = `DELETE FROM cart_items WHERE cart_item_id = :cart_item_id AND user_id = :user_id`

	if err := database.NamedExecAffected(ctx, db, q, in); err != nil {
		return fmt.Errorf("deleting cart item[%s]: %w", itemID, err)
	}
	return nil
}

// Delete empties the cart of userID.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `DELETE FROM cart_items WHERE user_id = :user_id`

	if err := database.NamedExecContext(ctx, db, q, in); err != nil {
		return fmt.Errorf("deleting cart of user[%s]: %w", userID, err)
	}
	return nil
}
