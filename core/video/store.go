package video

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
)

const columns = `video_id, course_id, index, name, description, free, url, image_url, created_at, updated_at, version`

func Create(ctx context.Context, db sqlx.ExtContext, v Video) error {
	const q = `
	INSERT INTO videos
		(video_id, course_id, index, name, description, free, url, image_url, created_at, updated_at, version)
	VALUES
		(:video_id, :course_id, :index, :name, :description, :free, :url, :image_url, :created_at, :updated_at, :version)`

	if err := database.NamedExecContext(ctx, db, q, v); err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Video, error) {
	in := struct {
		ID string `db:"video_id"`
	}{id}

	q := `SELECT ` + columns + ` FROM videos WHERE video_id = :video_id`

	var v Video
	if err := database.NamedQueryStruct(ctx, db, q, in, &v); err != nil {
		return Video{}, fmt.Errorf("selecting video[%s]: %w", id, err)
	}
	return v, nil
}

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Video, error) {
	in := struct {
		CourseID string `db:"course_id"`
	}{courseID}

	q := `SELECT ` + columns + ` FROM videos WHERE course_id = :course_id ORDER BY index`

	var vs []Video
	if err := database.NamedQuerySlice(ctx, db, q, in, &vs); err != nil {
		return nil, fmt.Errorf("selecting videos of course[%s]: %w", courseID, err)
	}
	return vs, nil
}
