package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"notevault-api/domain"
	"notevault-api/storage"
)

func TestAuthenticateRejectsEmptyUser(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	mgr := NewManager(newFakeBackend(), nil, "notevault", logger)
	defer mgr.Close()

	if _, err := mgr.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("Authenticate(\"\"): err = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthenticateReturnsSameSession(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	mgr := NewManager(newFakeBackend(), nil, "notevault", logger)
	defer mgr.Close()

	first, err := mgr.Authenticate(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	second, err := mgr.Authenticate(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Authenticate again: %v", err)
	}
	if first != second {
		t.Fatal("repeated Authenticate created a second session for the same user")
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	mgr := NewManager(newFakeBackend(), nil, "notevault", logger)
	defer mgr.Close()
	ctx := context.Background()

	alice, _ := mgr.Authenticate(ctx, "alice")
	bob, _ := mgr.Authenticate(ctx, "bob")

	if _, err := alice.Notes.Create(ctx, NoteInput{Title: "mine"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := len(bob.Notes.Snapshot()); got != 0 {
		t.Fatalf("bob sees %d of alice's notes", got)
	}
}

func TestLogoutClosesStores(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	mgr := NewManager(newFakeBackend(), nil, "notevault", logger)
	defer mgr.Close()
	ctx := context.Background()

	sess, _ := mgr.Authenticate(ctx, "alice")
	id, _ := sess.Notes.Create(ctx, NoteInput{Title: "n"})
	ch, _, err := sess.Notes.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	<-ch

	mgr.Logout("alice")

	if _, open := <-ch; open {
		t.Fatal("watch channel still open after logout")
	}
	if got := len(sess.Notes.Snapshot()); got != 0 {
		t.Fatalf("snapshot has %d notes after logout, want 0", got)
	}
	if _, err := sess.Notes.Create(ctx, NoteInput{Title: "late"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("Create after logout: err = %v, want ErrUnauthenticated", err)
	}
	if err := sess.Folders.Rename(ctx, "x", "y"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("Rename after logout: err = %v, want ErrUnauthenticated", err)
	}
	if _, err := sess.Tasks.Create(ctx, TaskInput{Title: "late"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("Task create after logout: err = %v, want ErrUnauthenticated", err)
	}
}

func TestLogoutEndsListSubscriptions(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	mgr := NewManager(newFakeBackend(), nil, "notevault", logger)
	defer mgr.Close()
	ctx := context.Background()

	sess, _ := mgr.Authenticate(ctx, "alice")
	folderCh, cancelFolders := sess.Folders.Subscribe()
	defer cancelFolders()
	noteCh, cancelNotes := sess.Notes.Subscribe()
	defer cancelNotes()
	if _, err := sess.Notes.Create(ctx, NoteInput{Title: "n"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mgr.Logout("alice")

	// A buffered signal may still be pending; drain it, then the channel
	// must report closed so stream loops terminate.
	assertClosed := func(name string, ch <-chan struct{}) {
		t.Helper()
		for {
			select {
			case _, open := <-ch:
				if !open {
					return
				}
			case <-time.After(time.Second):
				t.Fatalf("%s subscription still open after logout", name)
			}
		}
	}
	assertClosed("folder", folderCh)
	assertClosed("note", noteCh)
}

func TestFeedRefreshesOnPublishedChange(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	backend := newFakeBackend()
	logger, _ := logrustest.NewNullLogger()
	mgr := NewManager(backend, rc, "notevault", logger)
	defer mgr.Close()
	ctx := context.Background()

	sess, err := mgr.Authenticate(ctx, "alice")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	ch, cancel := sess.Notes.Subscribe()
	defer cancel()

	// Another writer lands a note directly in the backing store and
	// announces it on the change channel, as the storage layer would.
	backend.InsertNote(ctx, domain.Note{ID: "n1", UserID: "alice", Title: "pushed"})
	channel := storage.ChangeChannel("notevault", storage.CollectionNotes, "alice")

	deadline := time.After(2 * time.Second)
	for {
		if err := rc.Publish(ctx, channel, "note-created").Err(); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case <-ch:
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no refresh signal after published change")
		}
		notes := sess.Notes.Snapshot()
		if len(notes) == 1 && notes[0].ID == "n1" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("snapshot = %d notes, want the pushed note", len(notes))
		default:
		}
	}
}
