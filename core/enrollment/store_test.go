package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func TestGrantIsIdempotent(t *testing.T) {
	db, mock := newMock(t)

	e := Enrollment{UserID: "u1", CourseID: "c1", CreatedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO enrollments .+ ON CONFLICT \\(user_id, course_id\\) DO NOTHING").
		WithArgs("u1", "c1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs("u1", "c1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := Grant(context.Background(), db, e)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first grant should create the enrollment")
	}

	created, err = Grant(context.Background(), db, e)
	if err != nil {
		t.Fatalf("second grant must not fail: %v", err)
	}
	if created {
		t.Fatal("second grant should be a no-op")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHas(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", "c2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := Has(context.Background(), db, "u1", "c1")
	if err != nil || !ok {
		t.Fatalf("expected enrollment for c1, got %v %v", ok, err)
	}

	ok, err = Has(context.Background(), db, "u1", "c2")
	if err != nil || ok {
		t.Fatalf("expected no enrollment for c2, got %v %v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
