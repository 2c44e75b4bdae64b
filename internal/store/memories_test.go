package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestInsertMemoryValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	if _, err := st.InsertMemory(context.Background(), "", "summary", "m", nil); err == nil {
		t.Fatalf("expected error without owner id")
	}
	if _, err := st.InsertMemory(context.Background(), "u1", "", "m", nil); err == nil {
		t.Fatalf("expected error without memory type")
	}
	if _, err := st.InsertMemory(context.Background(), "u1", "summary", "", nil); err == nil {
		t.Fatalf("expected error without memory text")
	}
}

func TestListMemoriesCapsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	query := regexp.QuoteMeta(`
SELECT id, user_id, memory_type, memory, metadata, created_at
FROM ai_memories
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`)
	mock.ExpectQuery(query).
		WithArgs("u1", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "memory_type", "memory", "metadata", "created_at",
		}).AddRow(int64(1), "u1", "reflection_summary", "m", []byte(`{"k":"v"}`), now))

	rows, err := st.ListMemories(context.Background(), "u1", 500)
	if err != nil {
		t.Fatalf("ListMemories: %v", err)
	}
	if len(rows) != 1 || rows[0].MemoryType != "reflection_summary" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
