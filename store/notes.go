package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notevault-api/domain"
	"notevault-api/storage"
)

// NoteStore owns one user's notes: a continuously refreshed snapshot, a
// reference-counted per-note watch pool, and ownership-checked mutations.
type NoteStore struct {
	userID  string
	backend Backend
	broker  *updateBroker

	// folders provides the cached folder list for path construction.
	folders func() []domain.Folder

	mu       sync.RWMutex
	snapshot []domain.Note
	closed   bool

	watchMu sync.Mutex
	watches map[string]*noteWatch
}

// noteWatch is one shared per-id subscription: every caller watching the same
// note id feeds off the same entry, which dies when the last reference drops,
// the note is deleted, or the session closes.
type noteWatch struct {
	refs int
	subs map[chan *domain.Note]struct{}
	last *domain.Note
	sent bool
}

func newNoteStore(userID string, backend Backend, folders func() []domain.Folder) *NoteStore {
	return &NoteStore{
		userID:  userID,
		backend: backend,
		broker:  newUpdateBroker(),
		folders: folders,
		watches: make(map[string]*noteWatch),
	}
}

// Create inserts a new note and returns its id. A missing slug is derived
// from the title; wiki links are extracted from the content.
func (s *NoteStore) Create(ctx context.Context, input NoteInput) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	slug := input.Slug
	if slug == "" {
		slug = domain.GenerateSlug(input.Title)
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	now := time.Now().UTC()
	note := domain.Note{
		ID:          uuid.NewString(),
		UserID:      s.userID,
		Title:       input.Title,
		Content:     input.Content,
		Slug:        slug,
		Tags:        tags,
		LinkedNotes: linkedNotesFor(input.Content),
		FolderID:    input.FolderID,
		IsPinned:    input.IsPinned,
		IsFavorite:  input.IsFavorite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.backend.InsertNote(ctx, note); err != nil {
		return "", err
	}
	s.Refresh(ctx)
	return note.ID, nil
}

// GetOnce reads one note with a fresh ownership check.
func (s *NoteStore) GetOnce(ctx context.Context, id string) (domain.Note, error) {
	if err := s.ensureOpen(); err != nil {
		return domain.Note{}, err
	}
	return s.fetchOwned(ctx, id)
}

// Watch returns a stream of the note's live value. The first element arrives
// once the current state is known: the note itself, or nil when missing or
// owned by someone else. Callers sharing an id share one pool entry; the
// release function must be called when the caller stops listening.
func (s *NoteStore) Watch(ctx context.Context, id string) (<-chan *domain.Note, func(), error) {
	if err := s.ensureOpen(); err != nil {
		return nil, nil, err
	}

	ch := make(chan *domain.Note, 1)

	s.watchMu.Lock()
	w, ok := s.watches[id]
	if !ok {
		w = &noteWatch{subs: make(map[chan *domain.Note]struct{})}
		s.watches[id] = w
	}
	w.refs++
	w.subs[ch] = struct{}{}
	if w.sent {
		ch <- w.last
	}
	s.watchMu.Unlock()

	if !ok {
		// First subscriber for this id primes the entry with a fresh read.
		note, err := s.fetchOwned(ctx, id)
		var val *domain.Note
		if err == nil {
			val = &note
		}
		s.emitWatch(id, val)
	}

	release := func() { s.releaseWatch(id, ch) }
	return ch, release, nil
}

func (s *NoteStore) releaseWatch(id string, ch chan *domain.Note) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	w, ok := s.watches[id]
	if !ok {
		return
	}
	if _, subscribed := w.subs[ch]; !subscribed {
		return
	}
	delete(w.subs, ch)
	w.refs--
	if w.refs <= 0 {
		delete(s.watches, id)
	}
}

// emitWatch publishes a new live value for id to every sharing subscriber,
// suppressing duplicates of the previously sent value.
func (s *NoteStore) emitWatch(id string, val *domain.Note) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	w, ok := s.watches[id]
	if !ok {
		return
	}
	if w.sent && sameNote(w.last, val) {
		return
	}
	w.last = val
	w.sent = true
	for ch := range w.subs {
		// Drop any undrained older value so a slow subscriber always
		// observes the newest state.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- val:
		default:
		}
	}
}

// dropWatch tears down the pool entry for id entirely, used on local deletion
// and session close.
func (s *NoteStore) dropWatch(id string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	w, ok := s.watches[id]
	if !ok {
		return
	}
	for ch := range w.subs {
		close(ch)
	}
	delete(s.watches, id)
}

// Update applies a partial update after re-verifying ownership. updatedAt is
// always rewritten; a content change re-derives the wiki links.
func (s *NoteStore) Update(ctx context.Context, id string, patch NotePatch) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	note, err := s.fetchOwned(ctx, id)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
		note.LinkedNotes = linkedNotesFor(note.Content)
	}
	if patch.Slug != nil {
		note.Slug = *patch.Slug
	}
	if patch.Tags != nil {
		note.Tags = *patch.Tags
	}
	if patch.FolderID != nil {
		note.FolderID = *patch.FolderID
	}
	if patch.IsPinned != nil {
		note.IsPinned = *patch.IsPinned
	}
	if patch.IsFavorite != nil {
		note.IsFavorite = *patch.IsFavorite
	}
	note.UpdatedAt = time.Now().UTC()
	if err := s.backend.UpdateNote(ctx, note); err != nil {
		return err
	}
	s.emitWatch(id, &note)
	s.Refresh(ctx)
	return nil
}

// Delete removes a note after re-verifying ownership and tears down its watch
// pool entry.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if _, err := s.fetchOwned(ctx, id); err != nil {
		return err
	}
	if err := s.backend.DeleteNote(ctx, s.userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotFoundOrDenied
		}
		return err
	}
	s.dropWatch(id)
	s.Refresh(ctx)
	return nil
}

// deleteByFolder removes every note sitting directly in folderID. Folder
// deletion cascades through here so no note survives pointing at a dead
// folder id.
func (s *NoteStore) deleteByFolder(ctx context.Context, folderID string) error {
	for _, n := range s.Snapshot() {
		if n.FolderID != folderID {
			continue
		}
		if err := s.backend.DeleteNote(ctx, s.userID, n.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		s.dropWatch(n.ID)
	}
	s.Refresh(ctx)
	return nil
}

// Snapshot returns the current cached note list.
func (s *NoteStore) Snapshot() []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Note, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Subscribe registers for change signals on the live note list.
func (s *NoteStore) Subscribe() (<-chan struct{}, func()) {
	ch := s.broker.subscribe()
	return ch, func() { s.broker.unsubscribe(ch) }
}

// List applies the filter to the cached snapshot.
func (s *NoteStore) List(filter domain.NoteFilter) []domain.Note {
	return filter.Apply(s.Snapshot())
}

// Metadata derives the lightweight summaries for the filtered snapshot.
func (s *NoteStore) Metadata(filter domain.NoteFilter) []domain.NoteMetadata {
	notes := s.List(filter)
	out := make([]domain.NoteMetadata, len(notes))
	for i, n := range notes {
		out[i] = n.Metadata()
	}
	return out
}

// Backlinks returns the notes whose wiki links reference the given title.
func (s *NoteStore) Backlinks(title string) []domain.Note {
	var out []domain.Note
	for _, n := range s.Snapshot() {
		for _, link := range n.LinkedNotes {
			if link == title {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// TogglePin flips the pinned flag.
func (s *NoteStore) TogglePin(ctx context.Context, id string) error {
	note, err := s.GetOnce(ctx, id)
	if err != nil {
		return err
	}
	flipped := !note.IsPinned
	return s.Update(ctx, id, NotePatch{IsPinned: &flipped})
}

// ToggleFavorite flips the favorite flag.
func (s *NoteStore) ToggleFavorite(ctx context.Context, id string) error {
	note, err := s.GetOnce(ctx, id)
	if err != nil {
		return err
	}
	flipped := !note.IsFavorite
	return s.Update(ctx, id, NotePatch{IsFavorite: &flipped})
}

// AllTags returns the sorted union of every note's tags.
func (s *NoteStore) AllTags() []string {
	set := make(map[string]struct{})
	for _, n := range s.Snapshot() {
		for _, t := range n.Tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// BuildNotePath computes the addressable path of a note: the slugified folder
// chain from the root, then the note's slug.
func (s *NoteStore) BuildNotePath(note domain.Note) string {
	slug := note.Slug
	if slug == "" {
		slug = domain.GenerateSlug(note.Title)
	}
	if note.FolderID == "" {
		return "/" + slug
	}

	folders := s.folders()
	var parts []string
	currentID := note.FolderID
	for currentID != "" {
		folder, ok := findFolder(folders, currentID)
		if !ok {
			break
		}
		parts = append([]string{domain.GenerateSlug(folder.Name)}, parts...)
		currentID = folder.ParentID
	}
	return "/" + strings.Join(parts, "/") + "/" + slug
}

// NoteByPath resolves a slash path to a note by scanning the snapshot and
// comparing normalized forms: slashes trimmed, case ignored. Linear in the
// collection size, which is a single user's notes.
func (s *NoteStore) NoteByPath(path string) (domain.Note, bool) {
	want := normalizePath(path)
	for _, n := range s.Snapshot() {
		if normalizePath(s.BuildNotePath(n)) == want {
			return n, true
		}
	}
	return domain.Note{}, false
}

// NoteByIDOrPath treats values containing a slash as paths and anything else
// as an id.
func (s *NoteStore) NoteByIDOrPath(ctx context.Context, value string) (domain.Note, error) {
	if strings.Contains(value, "/") {
		note, ok := s.NoteByPath(value)
		if !ok {
			return domain.Note{}, domain.ErrNotFoundOrDenied
		}
		return note, nil
	}
	return s.GetOnce(ctx, value)
}

// Refresh re-reads the user's note list into the snapshot, signals
// subscribers, and pushes current values into the watch pool. On backend
// failure the snapshot resets to empty.
func (s *NoteStore) Refresh(ctx context.Context) {
	notes, err := s.backend.ListNotes(ctx, s.userID)
	if err != nil {
		notes = nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.snapshot = notes
	s.mu.Unlock()
	s.broker.notify()

	for _, id := range s.watchedIDs() {
		var val *domain.Note
		for i := range notes {
			if notes[i].ID == id {
				n := notes[i]
				val = &n
				break
			}
		}
		s.emitWatch(id, val)
	}
}

func (s *NoteStore) watchedIDs() []string {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	out := make([]string, 0, len(s.watches))
	for id := range s.watches {
		out = append(out, id)
	}
	return out
}

func (s *NoteStore) close() {
	s.mu.Lock()
	s.closed = true
	s.snapshot = nil
	s.mu.Unlock()
	s.broker.close()

	s.watchMu.Lock()
	for id, w := range s.watches {
		for ch := range w.subs {
			close(ch)
		}
		delete(s.watches, id)
	}
	s.watchMu.Unlock()
}

func (s *NoteStore) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *NoteStore) fetchOwned(ctx context.Context, id string) (domain.Note, error) {
	note, err := s.backend.GetNote(ctx, s.userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Note{}, domain.ErrNotFoundOrDenied
		}
		return domain.Note{}, err
	}
	if note.UserID != s.userID {
		return domain.Note{}, domain.ErrNotFoundOrDenied
	}
	return note, nil
}

func linkedNotesFor(content string) []string {
	links := domain.ExtractWikiLinks(content)
	if links == nil {
		return []string{}
	}
	return links
}

func normalizePath(p string) string {
	return strings.ToLower(strings.Trim(p, "/"))
}

func sameNote(a, b *domain.Note) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.UpdatedAt.Equal(b.UpdatedAt) &&
		a.IsPinned == b.IsPinned && a.IsFavorite == b.IsFavorite
}
