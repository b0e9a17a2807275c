package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"notevault-api/domain"
	"notevault-api/storage"
)

// TaskStore owns one user's tasks, mirroring the note store's snapshot and
// ownership-check pattern.
type TaskStore struct {
	userID  string
	backend Backend
	broker  *updateBroker

	mu       sync.RWMutex
	snapshot []domain.Task
	closed   bool
}

func newTaskStore(userID string, backend Backend) *TaskStore {
	return &TaskStore{
		userID:  userID,
		backend: backend,
		broker:  newUpdateBroker(),
	}
}

// Create inserts a new task with defaults applied (medium priority, todo
// status) and returns its id.
func (s *TaskStore) Create(ctx context.Context, input TaskInput) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	status := input.Status
	if status == "" {
		status = domain.StatusTodo
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	now := time.Now().UTC()
	task := domain.Task{
		ID:           uuid.NewString(),
		UserID:       s.userID,
		Title:        input.Title,
		Description:  input.Description,
		Priority:     priority,
		Status:       status,
		DueDate:      normalizeDate(input.DueDate),
		Tags:         tags,
		LinkedNoteID: input.LinkedNoteID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.backend.InsertTask(ctx, task); err != nil {
		return "", err
	}
	s.Refresh(ctx)
	return task.ID, nil
}

// Get reads one task with a fresh ownership check.
func (s *TaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	if err := s.ensureOpen(); err != nil {
		return domain.Task{}, err
	}
	return s.fetchOwned(ctx, id)
}

// Update applies a partial update after re-verifying ownership. updatedAt is
// always rewritten. A DueDate of the zero time clears the stored due date.
func (s *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	task, err := s.fetchOwned(ctx, id)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			task.DueDate = nil
		} else {
			task.DueDate = normalizeDate(patch.DueDate)
		}
	}
	if patch.Tags != nil {
		task.Tags = *patch.Tags
	}
	if patch.LinkedNoteID != nil {
		task.LinkedNoteID = *patch.LinkedNoteID
	}
	task.UpdatedAt = time.Now().UTC()
	if err := s.backend.UpdateTask(ctx, task); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// UpdateStatus transitions a task. Entering done stamps completedAt; leaving
// it clears the stamp.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	task, err := s.fetchOwned(ctx, id)
	if err != nil {
		return err
	}
	task.Status = status
	if status == domain.StatusDone {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	task.UpdatedAt = time.Now().UTC()
	if err := s.backend.UpdateTask(ctx, task); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// UpdatePriority changes a task's priority level.
func (s *TaskStore) UpdatePriority(ctx context.Context, id string, priority domain.Priority) error {
	return s.Update(ctx, id, TaskPatch{Priority: &priority})
}

// Delete removes a task after re-verifying ownership.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if _, err := s.fetchOwned(ctx, id); err != nil {
		return err
	}
	if err := s.backend.DeleteTask(ctx, s.userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotFoundOrDenied
		}
		return err
	}
	s.Refresh(ctx)
	return nil
}

// Snapshot returns the current cached task list.
func (s *TaskStore) Snapshot() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Subscribe registers for change signals on the live task list.
func (s *TaskStore) Subscribe() (<-chan struct{}, func()) {
	ch := s.broker.subscribe()
	return ch, func() { s.broker.unsubscribe(ch) }
}

// List applies the filter to the cached snapshot.
func (s *TaskStore) List(filter domain.TaskFilter) []domain.Task {
	return filter.Apply(s.Snapshot())
}

// AllTags returns the sorted union of every task's tags.
func (s *TaskStore) AllTags() []string {
	set := make(map[string]struct{})
	for _, t := range s.Snapshot() {
		for _, tag := range t.Tags {
			set[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Refresh re-reads the user's task list into the snapshot and signals
// subscribers. On backend failure the snapshot resets to empty.
func (s *TaskStore) Refresh(ctx context.Context) {
	tasks, err := s.backend.ListTasks(ctx, s.userID)
	if err != nil {
		tasks = nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.snapshot = tasks
	s.mu.Unlock()
	s.broker.notify()
}

func (s *TaskStore) close() {
	s.mu.Lock()
	s.closed = true
	s.snapshot = nil
	s.mu.Unlock()
	s.broker.close()
}

func (s *TaskStore) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *TaskStore) fetchOwned(ctx context.Context, id string) (domain.Task, error) {
	task, err := s.backend.GetTask(ctx, s.userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Task{}, domain.ErrNotFoundOrDenied
		}
		return domain.Task{}, err
	}
	if task.UserID != s.userID {
		return domain.Task{}, domain.ErrNotFoundOrDenied
	}
	return task, nil
}

// normalizeDate strips sub-second precision so due dates survive the round
// trip through table storage unchanged.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Second)
	return &v
}
