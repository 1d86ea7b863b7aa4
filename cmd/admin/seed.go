package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/user"
	"github.com/irsalhamdi/course-market/core/video"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	name, email, password string
	role                  claims.Role
}

var seedUsers = []seedUser{
	{"Admin", "admin@example.com", "admin-password", claims.RoleAdmin},
	{"Instructor", "instructor@example.com", "instructor-password", claims.RoleInstructor},
	{"User", "user@example.com", "user-password", claims.RoleUser},
}

var seedCourses = []course.Course{
	{Name: "Go from scratch", Description: "Types, functions and packages.", Price: 5000},
	{Name: "Concurrency in Go", Description: "Goroutines, channels and the context package.", Price: 3000},
	{Name: "PostgreSQL for developers", Description: "Schemas, indexes and transactions.", Price: 4000},
}

// seed inserts demo users and courses, each course opening with a free
// video. Users already present are left alone, so seeding twice only adds
// courses.
func seed(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	err := database.Transaction(ctx, db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()

		for _, su := range seedUsers {
			_, err := user.FetchByEmail(ctx, tx, su.email)
			if err == nil {
				continue
			}
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password of %s: %w", su.email, err)
			}

			u := user.User{
				ID:           validate.GenerateID(),
				Name:         su.name,
				Email:        su.email,
				Role:         su.role,
				PasswordHash: string(hash),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := user.Create(ctx, tx, u); err != nil {
				return err
			}
			n++
		}

		for _, c := range seedCourses {
			c.ID = validate.GenerateID()
			c.Published = true
			c.CreatedAt = now
			c.UpdatedAt = now
			c.Version = 1
			if err := course.Create(ctx, tx, c); err != nil {
				return err
			}

			v := video.Video{
				ID:          validate.GenerateID(),
				CourseID:    c.ID,
				Name:        "Introduction",
				Description: "What " + c.Name + " covers.",
				Free:        true,
				URL:         "https://cdn.example.com/" + c.ID + "/intro.m3u8",
				CreatedAt:   now,
				UpdatedAt:   now,
				Version:     1,
			}
			if err := video.Create(ctx, tx, v); err != nil {
				return err
			}
			n += 2
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding: %w", err)
	}
	return n, nil
}
