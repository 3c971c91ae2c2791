package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vrsandeep/stockpile-go/internal/models"
)

// RecordRun inserts or updates a download run.
func (s *Store) RecordRun(run models.DownloadRun) error {
	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}
	_, err := s.db.Exec(`
        INSERT INTO download_runs (id, provider, state, total, succeeded, failed, artifact, message, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            state = excluded.state,
            succeeded = excluded.succeeded,
            failed = excluded.failed,
            artifact = excluded.artifact,
            message = excluded.message,
            finished_at = excluded.finished_at
    `, run.ID, run.Provider, string(run.State), run.Total, run.Succeeded, run.Failed,
		run.Artifact, run.Message, run.StartedAt, finished)
	if err != nil {
		return fmt.Errorf("failed to record download run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. An empty provider lists all of them.
func (s *Store) ListRuns(provider string, limit int) ([]models.DownloadRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, provider, state, total, succeeded, failed, artifact, message, started_at, finished_at
        FROM download_runs`
	args := []any{}
	if provider != "" {
		query += " WHERE provider = ?"
		args = append(args, provider)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]models.DownloadRun, 0)
	for rows.Next() {
		var run models.DownloadRun
		var state string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Provider, &state, &run.Total, &run.Succeeded, &run.Failed,
			&run.Artifact, &run.Message, &run.StartedAt, &finished); err != nil {
			return nil, err
		}
		run.State = models.RunState(state)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PruneRuns deletes runs that started before the cutoff.
func (s *Store) PruneRuns(before time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM download_runs WHERE started_at < ?", before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
