package video

import "time"

type Video struct {
	ID          string    `json:"id" db:"video_id"`
	CourseID    string    `json:"courseId" db:"course_id"`
	Index       int       `json:"index" db:"index"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Free        bool      `json:"free" db:"free"`
	URL         string    `json:"-" db:"url"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Version     int       `json:"-" db:"version"`
}

type VideoNew struct {
	CourseID    string `json:"courseId" validate:"required,uuid4"`
	Index       int    `json:"index" validate:"gte=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Free        bool   `json:"free"`
	URL         string `json:"url" validate:"required,url"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// Stream is a video together with the location it is played from. It is only
// handed to users allowed to watch the video.
type Stream struct {
	Video
	URL string `json:"url"`
}
