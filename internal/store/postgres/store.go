package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

type resultStore struct {
	db *sqlx.DB
}

// NewResultStore creates a PostgreSQL-backed ResultStore.
func NewResultStore(db *sqlx.DB) port.ResultStore {
	return &resultStore{db: db}
}

// analysisRow is the stored shape of an analysis. Fields hidden from the API
// live in their own columns; everything else is the JSON payload.
type analysisRow struct {
	FileID      uuid.UUID `db:"file_id"`
	FileHash    string    `db:"file_hash"`
	OriginalKey string    `db:"original_key"`
	Payload     []byte    `db:"payload"`
	AnalyzedAt  time.Time `db:"analyzed_at"`
	CreatedAt   time.Time `db:"created_at"`
}

func encodeAnalysis(result *domain.AnalysisResult) (*analysisRow, error) {
	c := result.Clone()
	c.Cached = false
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return &analysisRow{
		FileID:      c.FileID,
		FileHash:    c.FileHash,
		OriginalKey: c.OriginalKey,
		Payload:     payload,
		AnalyzedAt:  c.AnalyzedAt,
	}, nil
}

func (row *analysisRow) decode() (*domain.AnalysisResult, error) {
	var r domain.AnalysisResult
	if err := json.Unmarshal(row.Payload, &r); err != nil {
		return nil, fmt.Errorf("decoding analysis %s: %w", row.FileID, err)
	}
	r.FileID = row.FileID
	r.FileHash = row.FileHash
	r.OriginalKey = row.OriginalKey
	return &r, nil
}

func (s *resultStore) SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error {
	row, err := encodeAnalysis(result)
	if err != nil {
		return fmt.Errorf("resultStore.SaveAnalysis encode: %w", err)
	}

	query := `INSERT INTO analyses (file_id, file_hash, original_key, payload, analyzed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_id) DO UPDATE SET
			file_hash = EXCLUDED.file_hash,
			original_key = EXCLUDED.original_key,
			payload = EXCLUDED.payload,
			analyzed_at = EXCLUDED.analyzed_at`

	_, err = s.db.ExecContext(ctx, query,
		row.FileID, row.FileHash, row.OriginalKey, row.Payload, row.AnalyzedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resultStore.SaveAnalysis: %w", err)
	}
	return nil
}

func (s *resultStore) GetAnalysis(ctx context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error) {
	return s.getAnalysis(ctx, "SELECT * FROM analyses WHERE file_id = $1", fileID)
}

func (s *resultStore) FindByHash(ctx context.Context, hash string) (*domain.AnalysisResult, error) {
	return s.getAnalysis(ctx,
		"SELECT * FROM analyses WHERE file_hash = $1 ORDER BY analyzed_at DESC LIMIT 1", hash)
}

func (s *resultStore) getAnalysis(ctx context.Context, query string, arg any) (*domain.AnalysisResult, error) {
	var row analysisRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("resultStore.getAnalysis: %w", err)
	}
	return row.decode()
}

func (s *resultStore) ListAnalyses(ctx context.Context) ([]domain.AnalysisResult, error) {
	var rows []analysisRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM analyses ORDER BY analyzed_at DESC"); err != nil {
		return nil, fmt.Errorf("resultStore.ListAnalyses: %w", err)
	}
	out := make([]domain.AnalysisResult, 0, len(rows))
	for i := range rows {
		r, err := rows[i].decode()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *resultStore) CreateTask(ctx context.Context, task *domain.ExportTask) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	query := `INSERT INTO export_tasks (id, file_id, format, status, blob_key, error, created_at, updated_at)
		VALUES (:id, :file_id, :format, :status, :blob_key, :error, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("resultStore.CreateTask: %w", err)
	}
	return nil
}

func (s *resultStore) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.ExportTask, error) {
	var task domain.ExportTask
	err := s.db.GetContext(ctx, &task, "SELECT * FROM export_tasks WHERE id = $1", taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("resultStore.GetTask: %w", err)
	}
	return &task, nil
}

// Transitions are conditional updates; zero affected rows means the task is
// gone or not in the expected state.

func (s *resultStore) StartTask(ctx context.Context, taskID uuid.UUID) error {
	return s.transition(ctx, "resultStore.StartTask", taskID,
		`UPDATE export_tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		domain.ExportStatusProcessing, time.Now().UTC(), taskID, domain.ExportStatusQueued)
}

func (s *resultStore) CompleteTask(ctx context.Context, taskID uuid.UUID, blobKey string) error {
	if blobKey == "" {
		return domain.ErrInvalidTransition
	}
	return s.transition(ctx, "resultStore.CompleteTask", taskID,
		`UPDATE export_tasks SET status = $1, blob_key = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		domain.ExportStatusReady, blobKey, time.Now().UTC(), taskID, domain.ExportStatusProcessing)
}

func (s *resultStore) FailTask(ctx context.Context, taskID uuid.UUID, reason string) error {
	return s.transition(ctx, "resultStore.FailTask", taskID,
		`UPDATE export_tasks SET status = $1, error = $2, updated_at = $3
		 WHERE id = $4 AND status IN ($5, $6)`,
		domain.ExportStatusFailed, reason, time.Now().UTC(), taskID,
		domain.ExportStatusQueued, domain.ExportStatusProcessing)
}

func (s *resultStore) FailStaleTasks(ctx context.Context, reason string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_tasks SET status = $1, error = $2, updated_at = $3 WHERE status IN ($4, $5)`,
		domain.ExportStatusFailed, reason, time.Now().UTC(),
		domain.ExportStatusQueued, domain.ExportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("resultStore.FailStaleTasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resultStore.FailStaleTasks rows affected: %w", err)
	}
	return int(n), nil
}

func (s *resultStore) transition(ctx context.Context, op string, taskID uuid.UUID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM export_tasks WHERE id = $1)", taskID); err != nil {
		return fmt.Errorf("%s lookup: %w", op, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidTransition
}

func (s *resultStore) Clear(ctx context.Context) (*port.ClearResult, error) {
	return s.deleteWhere(ctx, "resultStore.Clear", "TRUE", nil)
}

func (s *resultStore) DeleteAnalysesBefore(ctx context.Context, cutoff time.Time) (*port.ClearResult, error) {
	return s.deleteWhere(ctx, "resultStore.DeleteAnalysesBefore", "analyzed_at < $1", []any{cutoff})
}

// deleteWhere removes the matching analyses and every export task that
// belongs to them in one transaction, collecting orphaned blob keys first.
// Clear also drops tasks whose analysis is already gone.
func (s *resultStore) deleteWhere(ctx context.Context, op, cond string, args []any) (*port.ClearResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	taskCond := "file_id IN (SELECT file_id FROM analyses WHERE " + cond + ")"
	if cond == "TRUE" {
		taskCond = "TRUE"
	}

	var keys []string
	if err := tx.SelectContext(ctx, &keys,
		"SELECT original_key FROM analyses WHERE "+cond+" AND original_key <> ''", args...); err != nil {
		return nil, fmt.Errorf("%s select originals: %w", op, err)
	}
	var blobKeys []string
	if err := tx.SelectContext(ctx, &blobKeys,
		"SELECT blob_key FROM export_tasks WHERE "+taskCond+" AND blob_key <> ''", args...); err != nil {
		return nil, fmt.Errorf("%s select blobs: %w", op, err)
	}

	taskRes, err := tx.ExecContext(ctx, "DELETE FROM export_tasks WHERE "+taskCond, args...)
	if err != nil {
		return nil, fmt.Errorf("%s delete tasks: %w", op, err)
	}
	analysisRes, err := tx.ExecContext(ctx, "DELETE FROM analyses WHERE "+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("%s delete analyses: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s commit: %w", op, err)
	}

	tasks, _ := taskRes.RowsAffected()
	analyses, _ := analysisRes.RowsAffected()
	return &port.ClearResult{
		Analyses: int(analyses),
		Tasks:    int(tasks),
		BlobKeys: append(keys, blobKeys...),
	}, nil
}

func (s *resultStore) Stats(ctx context.Context) (*port.StoreStats, error) {
	stats := &port.StoreStats{TasksByStatus: make(map[domain.ExportStatus]int)}
	if err := s.db.GetContext(ctx, &stats.Analyses, "SELECT COUNT(*) FROM analyses"); err != nil {
		return nil, fmt.Errorf("resultStore.Stats analyses: %w", err)
	}

	var rows []struct {
		Status domain.ExportStatus `db:"status"`
		Count  int                 `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS count FROM export_tasks GROUP BY status"); err != nil {
		return nil, fmt.Errorf("resultStore.Stats tasks: %w", err)
	}
	for _, r := range rows {
		stats.TasksByStatus[r.Status] = r.Count
		stats.Tasks += r.Count
	}
	return stats, nil
}

func (s *resultStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
