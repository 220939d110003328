package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

// taskEntry guards a single export task. Transitions hold the store read
// lock plus the entry lock, so they never interleave with Clear.
type taskEntry struct {
	mu   sync.Mutex
	task domain.ExportTask
}

// Store is the in-process port.ResultStore.
type Store struct {
	mu       sync.RWMutex
	analyses map[uuid.UUID]*domain.AnalysisResult
	byHash   map[string]uuid.UUID
	tasks    map[uuid.UUID]*taskEntry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		analyses: make(map[uuid.UUID]*domain.AnalysisResult),
		byHash:   make(map[string]uuid.UUID),
		tasks:    make(map[uuid.UUID]*taskEntry),
	}
}

var _ port.ResultStore = (*Store)(nil)

func (s *Store) SaveAnalysis(_ context.Context, result *domain.AnalysisResult) error {
	c := result.Clone()
	c.Cached = false

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[c.FileID] = c
	if c.FileHash != "" {
		s.byHash[c.FileHash] = c.FileID
	}
	return nil
}

func (s *Store) GetAnalysis(_ context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.analyses[fileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) FindByHash(_ context.Context, hash string) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r, ok := s.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

// ListAnalyses returns every stored analysis, newest first.
func (s *Store) ListAnalyses(_ context.Context) ([]domain.AnalysisResult, error) {
	s.mu.RLock()
	out := make([]domain.AnalysisResult, 0, len(s.analyses))
	for _, r := range s.analyses {
		out = append(out, *r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
	})
	return out, nil
}

func (s *Store) CreateTask(_ context.Context, task *domain.ExportTask) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = &taskEntry{task: *task}
	return nil
}

func (s *Store) GetTask(_ context.Context, taskID uuid.UUID) (*domain.ExportTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.task
	return &t, nil
}

func (s *Store) StartTask(_ context.Context, taskID uuid.UUID) error {
	return s.transition(taskID, func(t *domain.ExportTask) error {
		if t.Status != domain.ExportStatusQueued {
			return domain.ErrInvalidTransition
		}
		t.Status = domain.ExportStatusProcessing
		return nil
	})
}

// CompleteTask records the blob and marks the task ready in one step, so a
// ready task always has a blob.
func (s *Store) CompleteTask(_ context.Context, taskID uuid.UUID, blobKey string) error {
	if blobKey == "" {
		return domain.ErrInvalidTransition
	}
	return s.transition(taskID, func(t *domain.ExportTask) error {
		if t.Status != domain.ExportStatusProcessing {
			return domain.ErrInvalidTransition
		}
		t.Status = domain.ExportStatusReady
		t.BlobKey = blobKey
		return nil
	})
}

func (s *Store) FailTask(_ context.Context, taskID uuid.UUID, reason string) error {
	return s.transition(taskID, func(t *domain.ExportTask) error {
		if t.Status.IsTerminal() {
			return domain.ErrInvalidTransition
		}
		t.Status = domain.ExportStatusFailed
		t.Error = reason
		return nil
	})
}

func (s *Store) FailStaleTasks(_ context.Context, reason string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	now := time.Now().UTC()
	for _, e := range s.tasks {
		e.mu.Lock()
		if !e.task.Status.IsTerminal() {
			e.task.Status = domain.ExportStatusFailed
			e.task.Error = reason
			e.task.UpdatedAt = now
			n++
		}
		e.mu.Unlock()
	}
	return n, nil
}

func (s *Store) transition(taskID uuid.UUID, apply func(*domain.ExportTask) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.task
	if err := apply(&next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	e.task = next
	return nil
}

// Clear removes everything and reports the blob keys that are now orphaned.
func (s *Store) Clear(_ context.Context) (*port.ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &port.ClearResult{Analyses: len(s.analyses), Tasks: len(s.tasks)}
	for _, r := range s.analyses {
		if r.OriginalKey != "" {
			res.BlobKeys = append(res.BlobKeys, r.OriginalKey)
		}
	}
	for _, e := range s.tasks {
		e.mu.Lock()
		if e.task.BlobKey != "" {
			res.BlobKeys = append(res.BlobKeys, e.task.BlobKey)
		}
		e.mu.Unlock()
	}

	s.analyses = make(map[uuid.UUID]*domain.AnalysisResult)
	s.byHash = make(map[string]uuid.UUID)
	s.tasks = make(map[uuid.UUID]*taskEntry)
	return res, nil
}

// DeleteAnalysesBefore removes analyses analyzed before cutoff together with
// their export tasks.
func (s *Store) DeleteAnalysesBefore(_ context.Context, cutoff time.Time) (*port.ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &port.ClearResult{}
	expired := make(map[uuid.UUID]bool)
	for id, r := range s.analyses {
		if !r.AnalyzedAt.Before(cutoff) {
			continue
		}
		expired[id] = true
		if r.OriginalKey != "" {
			res.BlobKeys = append(res.BlobKeys, r.OriginalKey)
		}
		if r.FileHash != "" && s.byHash[r.FileHash] == id {
			delete(s.byHash, r.FileHash)
		}
		delete(s.analyses, id)
		res.Analyses++
	}
	if len(expired) == 0 {
		return res, nil
	}

	for id, e := range s.tasks {
		e.mu.Lock()
		drop := expired[e.task.FileID]
		if drop && e.task.BlobKey != "" {
			res.BlobKeys = append(res.BlobKeys, e.task.BlobKey)
		}
		e.mu.Unlock()
		if drop {
			delete(s.tasks, id)
			res.Tasks++
		}
	}
	return res, nil
}

func (s *Store) Stats(_ context.Context) (*port.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &port.StoreStats{
		Analyses:      len(s.analyses),
		Tasks:         len(s.tasks),
		TasksByStatus: make(map[domain.ExportStatus]int),
	}
	for _, e := range s.tasks {
		e.mu.Lock()
		stats.TasksByStatus[e.task.Status]++
		e.mu.Unlock()
	}
	return stats, nil
}

func (s *Store) Ping(_ context.Context) error { return nil }
