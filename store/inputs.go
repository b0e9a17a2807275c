package store

import (
	"time"

	"notevault-api/domain"
)

// NoteInput carries the caller-supplied fields for creating a note. Identity,
// owner and timestamps are stamped by the store.
type NoteInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Slug       string   `json:"slug,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	FolderID   string   `json:"folderId,omitempty"`
	IsPinned   bool     `json:"isPinned,omitempty"`
	IsFavorite bool     `json:"isFavorite,omitempty"`
}

// NotePatch is a partial note update. Nil fields stay untouched. Identity,
// owner and createdAt cannot be expressed here, so a caller cannot overwrite
// them no matter what payload it sends.
type NotePatch struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Slug       *string   `json:"slug,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	FolderID   *string   `json:"folderId,omitempty"`
	IsPinned   *bool     `json:"isPinned,omitempty"`
	IsFavorite *bool     `json:"isFavorite,omitempty"`
}

// TaskInput carries the caller-supplied fields for creating a task.
type TaskInput struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Priority     domain.Priority   `json:"priority,omitempty"`
	Status       domain.TaskStatus `json:"status,omitempty"`
	DueDate      *time.Time        `json:"dueDate,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	LinkedNoteID string            `json:"linkedNoteId,omitempty"`
}

// TaskPatch is a partial task update. A DueDate set to the zero time clears
// the stored due date; nil leaves it untouched.
type TaskPatch struct {
	Title        *string            `json:"title,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Priority     *domain.Priority   `json:"priority,omitempty"`
	Status       *domain.TaskStatus `json:"status,omitempty"`
	DueDate      *time.Time         `json:"dueDate,omitempty"`
	Tags         *[]string          `json:"tags,omitempty"`
	LinkedNoteID *string            `json:"linkedNoteId,omitempty"`
}
