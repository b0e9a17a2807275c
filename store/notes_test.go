package store

import (
	"context"
	"errors"
	"testing"

	"notevault-api/domain"
)

func TestNoteCreateDefaults(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, err := sess.Notes.Create(ctx, NoteInput{
		Title:   "My Note, Really!",
		Content: "See [[Other Note]] and [[Other Note]] again.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	note, err := sess.Notes.GetOnce(ctx, id)
	if err != nil {
		t.Fatalf("GetOnce: %v", err)
	}
	if note.Slug != "my-note-really" {
		t.Errorf("Slug = %q, want my-note-really", note.Slug)
	}
	if len(note.LinkedNotes) != 1 || note.LinkedNotes[0] != "Other Note" {
		t.Errorf("LinkedNotes = %v, want single deduplicated link", note.LinkedNotes)
	}
	if note.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", note.UserID)
	}
	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}
}

func TestNoteUpdateRederivesLinks(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "n", Content: "[[a]]"})
	before, _ := sess.Notes.GetOnce(ctx, id)

	content := "now [[b]] and [[c]]"
	if err := sess.Notes.Update(ctx, id, NotePatch{Content: &content}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, _ := sess.Notes.GetOnce(ctx, id)
	if len(after.LinkedNotes) != 2 || after.LinkedNotes[0] != "b" || after.LinkedNotes[1] != "c" {
		t.Errorf("LinkedNotes = %v, want [b c]", after.LinkedNotes)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestNoteToggles(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "n"})
	if err := sess.Notes.TogglePin(ctx, id); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}
	if err := sess.Notes.ToggleFavorite(ctx, id); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	note, _ := sess.Notes.GetOnce(ctx, id)
	if !note.IsPinned || !note.IsFavorite {
		t.Fatalf("after toggles: pinned=%v favorite=%v, want both true", note.IsPinned, note.IsFavorite)
	}
	if err := sess.Notes.TogglePin(ctx, id); err != nil {
		t.Fatalf("TogglePin again: %v", err)
	}
	note, _ = sess.Notes.GetOnce(ctx, id)
	if note.IsPinned {
		t.Error("second toggle did not clear pin")
	}
}

func TestNoteBacklinks(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	sess.Notes.Create(ctx, NoteInput{Title: "Hub"})
	sess.Notes.Create(ctx, NoteInput{Title: "First", Content: "see [[Hub]]"})
	sess.Notes.Create(ctx, NoteInput{Title: "Second", Content: "also [[Hub]] here"})
	sess.Notes.Create(ctx, NoteInput{Title: "Unrelated", Content: "[[Elsewhere]]"})

	back := sess.Notes.Backlinks("Hub")
	if len(back) != 2 {
		t.Fatalf("Backlinks = %d notes, want 2", len(back))
	}
	for _, n := range back {
		if n.Title != "First" && n.Title != "Second" {
			t.Errorf("unexpected backlink from %q", n.Title)
		}
	}
}

func TestNotePathRoundTrip(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	root, _ := sess.Folders.Create(ctx, "Work Stuff", "")
	sub, _ := sess.Folders.Create(ctx, "Deep Dive", root)
	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "Design Doc", FolderID: sub})

	note, _ := sess.Notes.GetOnce(ctx, id)
	path := sess.Notes.BuildNotePath(note)
	if path != "/work-stuff/deep-dive/design-doc" {
		t.Fatalf("BuildNotePath = %q", path)
	}

	got, ok := sess.Notes.NoteByPath("/Work-Stuff/deep-dive/DESIGN-DOC/")
	if !ok {
		t.Fatal("NoteByPath did not resolve the built path")
	}
	if got.ID != id {
		t.Fatalf("NoteByPath resolved %q, want %q", got.ID, id)
	}

	byID, err := sess.Notes.NoteByIDOrPath(ctx, id)
	if err != nil || byID.ID != id {
		t.Fatalf("NoteByIDOrPath by id: %v %q", err, byID.ID)
	}
	byPath, err := sess.Notes.NoteByIDOrPath(ctx, path)
	if err != nil || byPath.ID != id {
		t.Fatalf("NoteByIDOrPath by path: %v %q", err, byPath.ID)
	}
}

func TestNoteWatchSharedPool(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "watched"})

	ch1, release1, err := sess.Notes.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	ch2, release2, err := sess.Notes.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch second: %v", err)
	}
	defer release2()

	first := <-ch1
	if first == nil || first.Title != "watched" {
		t.Fatalf("first value = %+v, want the note", first)
	}
	if v := <-ch2; v == nil || v.ID != id {
		t.Fatalf("second subscriber got %+v", v)
	}

	sess.Notes.watchMu.Lock()
	refs := sess.Notes.watches[id].refs
	sess.Notes.watchMu.Unlock()
	if refs != 2 {
		t.Fatalf("pool refs = %d, want 2 shared subscribers", refs)
	}

	title := "renamed"
	if err := sess.Notes.Update(ctx, id, NotePatch{Title: &title}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v := <-ch1; v == nil || v.Title != "renamed" {
		t.Fatalf("after update got %+v", v)
	}

	release1()
	sess.Notes.watchMu.Lock()
	refs = sess.Notes.watches[id].refs
	sess.Notes.watchMu.Unlock()
	if refs != 1 {
		t.Fatalf("pool refs after release = %d, want 1", refs)
	}
}

func TestNoteWatchDeliversLatestValue(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "v0"})
	ch, release, err := sess.Notes.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer release()

	// The subscriber never drains between updates; the one-slot buffer must
	// end up holding the newest value, not the first one.
	for _, title := range []string{"v1", "v2"} {
		if err := sess.Notes.Update(ctx, id, NotePatch{Title: &title}); err != nil {
			t.Fatalf("Update to %s: %v", title, err)
		}
	}

	var last *domain.Note
drained:
	for {
		select {
		case v := <-ch:
			last = v
		default:
			break drained
		}
	}
	if last == nil || last.Title != "v2" {
		t.Fatalf("last observed = %+v, want the newest update", last)
	}
}

func TestNoteWatchClosesOnDelete(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "doomed"})
	ch, release, err := sess.Notes.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer release()
	<-ch

	if err := sess.Notes.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, open := <-ch; open {
		t.Fatal("watch channel still open after delete")
	}
}

func TestNoteOwnership(t *testing.T) {
	sess, backend, _ := newTestSession(t, "alice")
	ctx := context.Background()

	backend.InsertNote(ctx, domain.Note{ID: "n-bob", UserID: "bob", Title: "theirs"})

	if _, err := sess.Notes.GetOnce(ctx, "n-bob"); !errors.Is(err, domain.ErrNotFoundOrDenied) {
		t.Fatalf("GetOnce foreign: err = %v, want ErrNotFoundOrDenied", err)
	}
	title := "mine"
	if err := sess.Notes.Update(ctx, "n-bob", NotePatch{Title: &title}); !errors.Is(err, domain.ErrNotFoundOrDenied) {
		t.Fatalf("Update foreign: err = %v, want ErrNotFoundOrDenied", err)
	}
	if err := sess.Notes.Delete(ctx, "n-bob"); !errors.Is(err, domain.ErrNotFoundOrDenied) {
		t.Fatalf("Delete foreign: err = %v, want ErrNotFoundOrDenied", err)
	}
}

func TestNoteAllTags(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	sess.Notes.Create(ctx, NoteInput{Title: "a", Tags: []string{"go", "db"}})
	sess.Notes.Create(ctx, NoteInput{Title: "b", Tags: []string{"db", "web"}})

	tags := sess.Notes.AllTags()
	if len(tags) != 3 {
		t.Fatalf("AllTags = %v, want 3 unique tags", tags)
	}
	want := []string{"db", "go", "web"}
	for i, tag := range want {
		if tags[i] != tag {
			t.Fatalf("AllTags = %v, want sorted %v", tags, want)
		}
	}
}
