package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	userID   = "8b5f3a3e-8a0e-4c57-9d3e-0f6b1f0c1a11"
	courseID = "2f1c6a52-3c0e-4a1e-8d0e-6a5b7e9c1d22"
)

var courseColumns = []string{"course_id", "name", "description", "image_url", "price", "published", "created_at", "updated_at", "version"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func expectCourse(mock sqlmock.Sqlmock, published bool) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE course_id").
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows(courseColumns).
			AddRow(courseID, "Go", "Learn Go", "", 5000, published, now, now, 1))
}

func expectEnrolled(mock sqlmock.Sqlmock, enrolled bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(userID, courseID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(enrolled))
}

func itemRows(it Item) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"cart_item_id", "user_id", "course_id", "created_at"})
	if it.ID != "" {
		rows.AddRow(it.ID, it.UserID, it.CourseID, it.CreatedAt)
	}
	return rows
}

func TestAddTwiceKeepsOneItem(t *testing.T) {
	db, mock := newMock(t)
	ctx := context.Background()

	expectCourse(mock, true)
	expectEnrolled(mock, false)
	mock.ExpectQuery("FROM cart_items WHERE user_id").
		WithArgs(userID, courseID).
		WillReturnRows(itemRows(Item{}))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(sqlmock.AnyArg(), userID, courseID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	first, created, err := Add(ctx, db, userID, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first add should create an item")
	}

	expectCourse(mock, true)
	expectEnrolled(mock, false)
	mock.ExpectQuery("FROM cart_items WHERE user_id").
		WithArgs(userID, courseID).
		WillReturnRows(itemRows(first))

	second, created, err := Add(ctx, db, userID, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("second add must not create another item")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second add should return the stored item (-want +got):\n%s", diff)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddRejectsEnrolledUser(t *testing.T) {
	db, mock := newMock(t)

	expectCourse(mock, true)
	expectEnrolled(mock, true)

	_, _, err := Add(context.Background(), db, userID, courseID)
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddUnknownCourse(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE course_id").
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows(courseColumns))

	if _, _, err := Add(context.Background(), db, userID, courseID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}

	expectCourse(mock, false)
	if _, _, err := Add(context.Background(), db, userID, courseID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("unpublished course: expected ErrCourseNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddLosingRaceReturnsWinner(t *testing.T) {
	db, mock := newMock(t)

	winner := Item{ID: "winner", UserID: userID, CourseID: courseID, CreatedAt: time.Now().UTC()}

	expectCourse(mock, true)
	expectEnrolled(mock, false)
	mock.ExpectQuery("FROM cart_items WHERE user_id").
		WithArgs(userID, courseID).
		WillReturnRows(itemRows(Item{}))
	mock.ExpectExec("INSERT INTO cart_items").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("FROM cart_items WHERE user_id").
		WithArgs(userID, courseID).
		WillReturnRows(itemRows(winner))

	got, created, err := Add(context.Background(), db, userID, courseID)
	if err != nil {
		t.Fatalf("a unique violation must resolve to the existing item: %v", err)
	}
	if created || got.ID != "winner" {
		t.Fatalf("expected the winner item, got %+v created=%v", got, created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveForeignItem(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE cart_item_id").
		WithArgs("item-of-u1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Remove(context.Background(), db, "u2", "item-of-u1"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("DELETE FROM cart_items WHERE cart_item_id").
		WithArgs("item-of-u1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := Remove(context.Background(), db, "u1", "item-of-u1"); err != nil {
		t.Fatalf("owner should be able to remove the item: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListTotals(t *testing.T) {
	db, mock := newMock(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"cart_item_id", "user_id", "course_id", "created_at",
		"course.course_id", "course.name", "course.description", "course.image_url", "course.price",
	}).
		AddRow("i1", userID, "a", now, "a", "A", "course a", "", 5000).
		AddRow("i2", userID, "b", now, "b", "B", "course b", "", 3000)

	mock.ExpectQuery("FROM cart_items i JOIN courses c").
		WithArgs(userID).
		WillReturnRows(rows)

	crt, err := List(context.Background(), db, userID)
	if err != nil {
		t.Fatal(err)
	}

	if crt.Count != 2 || crt.Total != 8000 {
		t.Fatalf("expected 2 items totalling 8000, got %d items totalling %d", crt.Count, crt.Total)
	}
	if crt.Items[1].Course.Name != "B" {
		t.Fatalf("course summary not scanned: %+v", crt.Items[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
