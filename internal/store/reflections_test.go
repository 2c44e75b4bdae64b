package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func reflectionRows(now time.Time, ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "content", "reflection_date", "created_at", "updated_at", "deleted_at",
	})
	for _, id := range ids {
		rows.AddRow(id, "u1", "title", "content", now, now, now, nil)
	}
	return rows
}

func TestCreateReflection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	query := regexp.QuoteMeta(`
INSERT INTO reflections (user_id, title, content, reflection_date)
VALUES ($1,$2,$3,$4)
RETURNING id
`)
	mock.ExpectQuery(query).
		WithArgs("u1", "t", "c", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := st.CreateReflection(context.Background(), "u1", "t", "c", time.Time{})
	if err != nil {
		t.Fatalf("CreateReflection: %v", err)
	}
	if id != 7 {
		t.Fatalf("unexpected id: %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateReflectionRequiresOwner(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	if _, err := st.CreateReflection(context.Background(), "", "t", "c", time.Now()); err == nil {
		t.Fatalf("expected error without owner id")
	}
}

func TestGetReflectionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	query := regexp.QuoteMeta(`
SELECT id, user_id, title, content, reflection_date, created_at, updated_at, deleted_at
FROM reflections
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL
`)
	mock.ExpectQuery(query).
		WithArgs(int64(9), "u1").
		WillReturnRows(reflectionRows(time.Now()))

	_, found, err := st.GetReflection(context.Background(), "u1", 9)
	if err != nil {
		t.Fatalf("GetReflection: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestSearchReflectionsLike(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	query := regexp.QuoteMeta(`
SELECT id, user_id, title, content, reflection_date, created_at, updated_at, deleted_at
FROM reflections
WHERE user_id=$1 AND deleted_at IS NULL AND (title ILIKE $2 OR content ILIKE $2)
ORDER BY updated_at DESC
LIMIT $3
`)
	mock.ExpectQuery(query).
		WithArgs("u1", "%회고%", 6).
		WillReturnRows(reflectionRows(now, 3, 1))

	// Zero limit falls back to the default of 6.
	rows, err := st.SearchReflectionsLike(context.Background(), "u1", "회고", 0)
	if err != nil {
		t.Fatalf("SearchReflectionsLike: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != 3 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSoftDeleteReflection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	query := regexp.QuoteMeta(`
UPDATE reflections
SET deleted_at=NOW()
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL
`)
	mock.ExpectExec(query).
		WithArgs(int64(4), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := st.SoftDeleteReflection(context.Background(), "u1", 4)
	if err != nil {
		t.Fatalf("SoftDeleteReflection: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deletion to be reported")
	}

	mock.ExpectExec(query).
		WithArgs(int64(4), "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	deleted, err = st.SoftDeleteReflection(context.Background(), "u1", 4)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatalf("already-deleted row must report false")
	}
}
