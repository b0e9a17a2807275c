package store

import (
	"context"

	"notevault-api/domain"
)

// Backend abstracts document persistence for the stores. *storage.Storage and
// *storage.Cache both satisfy it.
type Backend interface {
	InsertNote(ctx context.Context, n domain.Note) error
	GetNote(ctx context.Context, userID, id string) (domain.Note, error)
	UpdateNote(ctx context.Context, n domain.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)

	InsertFolder(ctx context.Context, f domain.Folder) error
	GetFolder(ctx context.Context, userID, id string) (domain.Folder, error)
	UpdateFolder(ctx context.Context, f domain.Folder) error
	DeleteFolder(ctx context.Context, userID, id string) error
	ListFolders(ctx context.Context, userID string) ([]domain.Folder, error)

	InsertTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, userID, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
}
