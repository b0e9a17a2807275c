package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"notevault-api/domain"
)

// InsertNote writes a new note document and publishes a created event.
func (s *Storage) InsertNote(ctx context.Context, n domain.Note) error {
	data, err := json.Marshal(noteToEntity(n))
	if err != nil {
		return err
	}
	if _, err := s.notesTable.AddEntity(ctx, data, nil); err != nil {
		return err
	}
	s.publish(ctx, CollectionNotes, n.UserID, n.ID, "note-created")
	return nil
}

// GetNote reads one note from the user's partition.
func (s *Storage) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	resp, err := s.notesTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Note{}, ErrNotFound
		}
		return domain.Note{}, err
	}
	return entityToNote(resp.Value)
}

// UpdateNote replaces the stored note document with n.
func (s *Storage) UpdateNote(ctx context.Context, n domain.Note) error {
	data, err := json.Marshal(noteToEntity(n))
	if err != nil {
		return err
	}
	mode := aztables.UpdateModeReplace
	if _, err := s.notesTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: mode}); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, CollectionNotes, n.UserID, n.ID, "note-updated")
	return nil
}

// DeleteNote removes one note from the user's partition.
func (s *Storage) DeleteNote(ctx context.Context, userID, id string) error {
	if _, err := s.notesTable.DeleteEntity(ctx, userID, id, nil); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, CollectionNotes, userID, id, "note-deleted")
	return nil
}

// ListNotes retrieves every note in the user's partition.
func (s *Storage) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	raw, err := s.listEntities(ctx, s.notesTable, userID)
	if err != nil {
		return nil, err
	}
	notes := make([]domain.Note, 0, len(raw))
	for _, data := range raw {
		n, err := entityToNote(data)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// InsertFolder writes a new folder document and publishes a created event.
func (s *Storage) InsertFolder(ctx context.Context, f domain.Folder) error {
	data, err := json.Marshal(folderToEntity(f))
	if err != nil {
		return err
	}
	if _, err := s.foldersTable.AddEntity(ctx, data, nil); err != nil {
		return err
	}
	s.publish(ctx, CollectionFolders, f.UserID, f.ID, "folder-created")
	return nil
}

// GetFolder reads one folder from the user's partition.
func (s *Storage) GetFolder(ctx context.Context, userID, id string) (domain.Folder, error) {
	resp, err := s.foldersTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Folder{}, ErrNotFound
		}
		return domain.Folder{}, err
	}
	return entityToFolder(resp.Value)
}

// UpdateFolder replaces the stored folder document with f.
func (s *Storage) UpdateFolder(ctx context.Context, f domain.Folder) error {
	data, err := json.Marshal(folderToEntity(f))
	if err != nil {
		return err
	}
	mode := aztables.UpdateModeReplace
	if _, err := s.foldersTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: mode}); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, CollectionFolders, f.UserID, f.ID, "folder-updated")
	return nil
}

// DeleteFolder removes one folder from the user's partition.
func (s *Storage) DeleteFolder(ctx context.Context, userID, id string) error {
	if _, err := s.foldersTable.DeleteEntity(ctx, userID, id, nil); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, CollectionFolders, userID, id, "folder-deleted")
	return nil
}

// ListFolders retrieves every folder in the user's partition.
func (s *Storage) ListFolders(ctx context.Context, userID string) ([]domain.Folder, error) {
	raw, err := s.listEntities(ctx, s.foldersTable, userID)
	if err != nil {
		return nil, err
	}
	folders := make([]domain.Folder, 0, len(raw))
	for _, data := range raw {
		f, err := entityToFolder(data)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, nil
}

// InsertTask writes a new task document and publishes a created event.
func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(taskToEntity(t))
	if err != nil {
		return err
	}
	if _, err := s.tasksTable.AddEntity(ctx, data, nil); err != nil {
		return err
	}
	s.publish(ctx, CollectionTasks, t.UserID, t.ID, "task-created")
	return nil
}

// GetTask reads one task from the user's partition.
func (s *Storage) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	resp, err := s.tasksTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return entityToTask(resp.Value)
}

// UpdateTask replaces the stored task document with t.
func (s *Storage) UpdateTask(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(taskToEntity(t))
	if err != nil {
		return err
	}
	mode := aztables.UpdateModeReplace
	if _, err := s.tasksTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: mode}); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, CollectionTasks, t.UserID, t.ID, "task-updated")
	return nil
}

// DeleteTask removes one task from the user's partition.
func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := s.tasksTable.DeleteEntity(ctx, userID, id, nil); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, CollectionTasks, userID, id, "task-deleted")
	return nil
}

// ListTasks retrieves every task in the user's partition.
func (s *Storage) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	raw, err := s.listEntities(ctx, s.tasksTable, userID)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(raw))
	for _, data := range raw {
		t, err := entityToTask(data)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
