package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestEncodeVectorLiteral(t *testing.T) {
	got, err := encodeVectorLiteral([]float32{0.5, -1, 2.25})
	if err != nil {
		t.Fatalf("encodeVectorLiteral: %v", err)
	}
	if got != "[0.5,-1,2.25]" {
		t.Fatalf("unexpected literal: %s", got)
	}
	if _, err := encodeVectorLiteral(nil); err == nil {
		t.Fatalf("expected error for empty vector")
	}
}

func TestUpsertReflectionEmbedding(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	query := regexp.QuoteMeta(`
INSERT INTO reflection_embeddings (id, user_id, embedding, metadata, created_at)
VALUES ($1,$2,$3::vector,$4,NOW())
ON CONFLICT (id) DO UPDATE SET
  user_id = EXCLUDED.user_id,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata,
  created_at = NOW();
`)
	mock.ExpectExec(query).
		WithArgs("reflection:7", "u1", "[0.5,1]", []byte(`{"title":"t"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = st.UpsertReflectionEmbedding(context.Background(), ReflectionEmbeddingRecord{
		ID:       "reflection:7",
		OwnerID:  "u1",
		Vector:   []float32{0.5, 1},
		Metadata: map[string]interface{}{"title": "t"},
	})
	if err != nil {
		t.Fatalf("UpsertReflectionEmbedding: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertReflectionEmbeddingValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	if err := st.UpsertReflectionEmbedding(context.Background(), ReflectionEmbeddingRecord{OwnerID: "u1", Vector: []float32{1}}); err == nil {
		t.Fatalf("expected error without id")
	}
	if err := st.UpsertReflectionEmbedding(context.Background(), ReflectionEmbeddingRecord{ID: "x", Vector: []float32{1}}); err == nil {
		t.Fatalf("expected error without owner")
	}
	if err := st.UpsertReflectionEmbedding(context.Background(), ReflectionEmbeddingRecord{ID: "x", OwnerID: "u1"}); err == nil {
		t.Fatalf("expected error without vector")
	}
}

func TestQueryReflectionEmbeddingsOwnerScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	query := regexp.QuoteMeta(`
SELECT id, metadata, created_at, embedding <=> $1::vector AS distance
FROM reflection_embeddings
WHERE user_id = $2
ORDER BY embedding <=> $1::vector
LIMIT $3
`)
	mock.ExpectQuery(query).
		WithArgs("[1,0]", "u1", 6).
		WillReturnRows(sqlmock.NewRows([]string{"id", "metadata", "created_at", "distance"}).
			AddRow("reflection:3", []byte(`{"snippet":"s"}`), now, 0.12).
			AddRow("reflection:8", nil, now, 0.4))

	matches, err := st.QueryReflectionEmbeddings(context.Background(), "u1", []float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("QueryReflectionEmbeddings: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "reflection:3" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if matches[0].Metadata["snippet"] != "s" {
		t.Fatalf("metadata not decoded: %+v", matches[0].Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReflectionEmbedding(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reflection_embeddings WHERE id=$1`)).
		WithArgs("reflection:3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.DeleteReflectionEmbedding(context.Background(), "reflection:3"); err != nil {
		t.Fatalf("delete of unknown id must not error: %v", err)
	}
}
