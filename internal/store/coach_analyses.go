package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CoachAnalysisRecord is one row of the append-only coaching audit trail.
// Repeated analyses of the same reflection accumulate instead of replacing
// each other.
type CoachAnalysisRecord struct {
	OwnerID      string    `json:"user_id"`
	ReflectionID int64     `json:"reflection_id"`
	Result       []byte    `json:"result"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Store) InsertCoachAnalysis(ctx context.Context, ownerID string, reflectionID int64, result []byte) error {
	if ownerID == "" || reflectionID == 0 || len(result) == 0 {
		return fmt.Errorf("owner id, reflection id and result are required")
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO coach_analyses (user_id, reflection_id, result_json)
VALUES ($1,$2,$3)
`, ownerID, reflectionID, result)
	return err
}

// LatestCoachAnalysis returns the most recent stored analysis for the owner's
// reflection.
func (s *Store) LatestCoachAnalysis(ctx context.Context, ownerID string, reflectionID int64) (CoachAnalysisRecord, bool, error) {
	rec := CoachAnalysisRecord{OwnerID: ownerID, ReflectionID: reflectionID}
	err := s.DB.QueryRowContext(ctx, `
SELECT result_json, created_at
FROM coach_analyses
WHERE reflection_id = $1 AND user_id = $2
ORDER BY created_at DESC
LIMIT 1
`, reflectionID, ownerID).Scan(&rec.Result, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return CoachAnalysisRecord{}, false, nil
	}
	if err != nil {
		return CoachAnalysisRecord{}, false, err
	}
	return rec, true, nil
}
