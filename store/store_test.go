package store

import (
	"context"
	"sync"

	"notevault-api/domain"
	"notevault-api/storage"
)

// fakeBackend is an in-memory document store with the same partition
// semantics as table storage: a record in another user's partition is
// indistinguishable from a missing one.
type fakeBackend struct {
	mu      sync.Mutex
	notes   map[string]domain.Note
	folders map[string]domain.Folder
	tasks   map[string]domain.Task
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		notes:   make(map[string]domain.Note),
		folders: make(map[string]domain.Folder),
		tasks:   make(map[string]domain.Task),
	}
}

func (f *fakeBackend) InsertNote(ctx context.Context, n domain.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[n.ID] = n
	return nil
}

func (f *fakeBackend) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != userID {
		return domain.Note{}, storage.ErrNotFound
	}
	return n, nil
}

func (f *fakeBackend) UpdateNote(ctx context.Context, n domain.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.notes[n.ID]
	if !ok || existing.UserID != n.UserID {
		return storage.ErrNotFound
	}
	f.notes[n.ID] = n
	return nil
}

func (f *fakeBackend) DeleteNote(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeBackend) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Note
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertFolder(ctx context.Context, fo domain.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folders[fo.ID] = fo
	return nil
}

func (f *fakeBackend) GetFolder(ctx context.Context, userID, id string) (domain.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fo, ok := f.folders[id]
	if !ok || fo.UserID != userID {
		return domain.Folder{}, storage.ErrNotFound
	}
	return fo, nil
}

func (f *fakeBackend) UpdateFolder(ctx context.Context, fo domain.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.folders[fo.ID]
	if !ok || existing.UserID != fo.UserID {
		return storage.ErrNotFound
	}
	f.folders[fo.ID] = fo
	return nil
}

func (f *fakeBackend) DeleteFolder(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fo, ok := f.folders[id]
	if !ok || fo.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.folders, id)
	return nil
}

func (f *fakeBackend) ListFolders(ctx context.Context, userID string) ([]domain.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Folder
	for _, fo := range f.folders {
		if fo.UserID == userID {
			out = append(out, fo)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertTask(ctx context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeBackend) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return domain.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return storage.ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeBackend) DeleteTask(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeBackend) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}
