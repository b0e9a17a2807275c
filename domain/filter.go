package domain

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder selects ascending or descending sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// NoteFilter narrows and orders a note list. Zero-valued fields are ignored.
type NoteFilter struct {
	IsPinned    *bool     `json:"isPinned,omitempty"`
	IsFavorite  *bool     `json:"isFavorite,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	SearchQuery string    `json:"searchQuery,omitempty"`
	SortBy      string    `json:"sortBy,omitempty"`
	SortOrder   SortOrder `json:"sortOrder,omitempty"`
}

var noteCollator = collate.New(language.Und)

// Apply filters and sorts notes in memory. Filters run in a fixed order: pin,
// favorite, tags (a note must carry every requested tag), then a
// case-insensitive substring search over title, content and tags. Sorting is
// stable; the default key is updatedAt descending.
func (f NoteFilter) Apply(notes []Note) []Note {
	out := notes
	if f.IsPinned != nil {
		out = filterNotes(out, func(n Note) bool { return n.IsPinned == *f.IsPinned })
	}
	if f.IsFavorite != nil {
		out = filterNotes(out, func(n Note) bool { return n.IsFavorite == *f.IsFavorite })
	}
	if len(f.Tags) > 0 {
		out = filterNotes(out, func(n Note) bool { return containsAll(n.Tags, f.Tags) })
	}
	if f.SearchQuery != "" {
		q := strings.ToLower(f.SearchQuery)
		out = filterNotes(out, func(n Note) bool {
			if strings.Contains(strings.ToLower(n.Title), q) {
				return true
			}
			if strings.Contains(strings.ToLower(n.Content), q) {
				return true
			}
			return anyTagContains(n.Tags, q)
		})
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "updatedAt"
	}
	desc := f.SortOrder != SortAsc

	sort.SliceStable(out, func(i, j int) bool {
		less := noteLess(out[i], out[j], sortBy)
		if less == 0 {
			return false
		}
		if desc {
			return less > 0
		}
		return less < 0
	})
	return out
}

// noteLess compares two notes on the named field: -1, 0 or 1. Dates compare
// numerically, strings by collation order, anything else keeps relative order.
func noteLess(a, b Note, field string) int {
	switch field {
	case "updatedAt":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "createdAt":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "title":
		return noteCollator.CompareString(a.Title, b.Title)
	case "slug":
		return noteCollator.CompareString(a.Slug, b.Slug)
	case "content":
		return noteCollator.CompareString(a.Content, b.Content)
	default:
		return 0
	}
}

// TaskFilter narrows a task list. Unlike NoteFilter.Tags, a task matches when
// it carries any of the requested tags.
type TaskFilter struct {
	Status       []TaskStatus `json:"status,omitempty"`
	Priority     []Priority   `json:"priority,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	LinkedNoteID *string      `json:"linkedNoteId,omitempty"`
	SearchQuery  string       `json:"searchQuery,omitempty"`
}

// Apply filters tasks in memory: status membership, priority membership, tag
// overlap, exact linked-note match, then a case-insensitive substring search
// over title, description and tags.
func (f TaskFilter) Apply(tasks []Task) []Task {
	out := tasks
	if len(f.Status) > 0 {
		out = filterTasks(out, func(t Task) bool { return containsStatus(f.Status, t.Status) })
	}
	if len(f.Priority) > 0 {
		out = filterTasks(out, func(t Task) bool { return containsPriority(f.Priority, t.Priority) })
	}
	if len(f.Tags) > 0 {
		out = filterTasks(out, func(t Task) bool { return containsAny(t.Tags, f.Tags) })
	}
	if f.LinkedNoteID != nil {
		out = filterTasks(out, func(t Task) bool { return t.LinkedNoteID == *f.LinkedNoteID })
	}
	if f.SearchQuery != "" {
		q := strings.ToLower(f.SearchQuery)
		out = filterTasks(out, func(t Task) bool {
			if strings.Contains(strings.ToLower(t.Title), q) {
				return true
			}
			if strings.Contains(strings.ToLower(t.Description), q) {
				return true
			}
			return anyTagContains(t.Tags, q)
		})
	}
	return out
}

func filterNotes(notes []Note, keep func(Note) bool) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func filterTasks(tasks []Task, keep func(Task) bool) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !containsString(have, w) {
			return false
		}
	}
	return true
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		if containsString(have, w) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyTagContains(tags []string, loweredQuery string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), loweredQuery) {
			return true
		}
	}
	return false
}

func containsStatus(list []TaskStatus, s TaskStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []Priority, p Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
