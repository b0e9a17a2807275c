package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"notevault-api/domain"
	"notevault-api/storage"
)

// FolderStore owns one user's folder hierarchy: a continuously refreshed
// snapshot plus ownership-checked mutations that keep the parent relation a
// forest.
type FolderStore struct {
	userID  string
	backend Backend
	broker  *updateBroker

	mu       sync.RWMutex
	snapshot []domain.Folder
	closed   bool

	// set by the session so folder deletion can cascade to contained notes
	deleteNotesIn func(ctx context.Context, folderID string) error
}

func newFolderStore(userID string, backend Backend) *FolderStore {
	return &FolderStore{
		userID:  userID,
		backend: backend,
		broker:  newUpdateBroker(),
	}
}

// Create inserts a folder under parentID (empty means root) and returns its id.
func (s *FolderStore) Create(ctx context.Context, name, parentID string) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	folder := domain.Folder{
		ID:        uuid.NewString(),
		UserID:    s.userID,
		Name:      name,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.backend.InsertFolder(ctx, folder); err != nil {
		return "", err
	}
	s.Refresh(ctx)
	return folder.ID, nil
}

// Snapshot returns the current cached folder list.
func (s *FolderStore) Snapshot() []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Folder, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Subscribe registers for change signals on the live folder list. The caller
// must invoke the returned release function when done.
func (s *FolderStore) Subscribe() (<-chan struct{}, func()) {
	ch := s.broker.subscribe()
	return ch, func() { s.broker.unsubscribe(ch) }
}

// Get reads one folder with a fresh ownership check.
func (s *FolderStore) Get(ctx context.Context, id string) (domain.Folder, error) {
	if err := s.ensureOpen(); err != nil {
		return domain.Folder{}, err
	}
	return s.fetchOwned(ctx, id)
}

// Rename changes a folder's name after re-verifying ownership.
func (s *FolderStore) Rename(ctx context.Context, id, newName string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	folder, err := s.fetchOwned(ctx, id)
	if err != nil {
		return err
	}
	folder.Name = newName
	folder.UpdatedAt = time.Now().UTC()
	if err := s.backend.UpdateFolder(ctx, folder); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// Move reparents a folder. It fails with ErrSelfParent when the target is the
// folder itself and with ErrCyclicMove when the target sits below the folder,
// checked by walking the parent chain from the target toward the root.
func (s *FolderStore) Move(ctx context.Context, id, newParentID string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if newParentID == id {
		return domain.ErrSelfParent
	}
	if newParentID != "" && s.isDescendant(id, newParentID) {
		return domain.ErrCyclicMove
	}
	folder, err := s.fetchOwned(ctx, id)
	if err != nil {
		return err
	}
	folder.ParentID = newParentID
	folder.UpdatedAt = time.Now().UTC()
	if err := s.backend.UpdateFolder(ctx, folder); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// Delete removes a folder and, depth-first, every descendant folder with the
// notes they contain.
func (s *FolderStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.deleteRecursive(ctx, id); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

func (s *FolderStore) deleteRecursive(ctx context.Context, id string) error {
	for _, child := range s.childrenOf(id) {
		if err := s.deleteRecursive(ctx, child.ID); err != nil {
			return err
		}
	}
	if _, err := s.fetchOwned(ctx, id); err != nil {
		return err
	}
	if s.deleteNotesIn != nil {
		if err := s.deleteNotesIn(ctx, id); err != nil {
			return err
		}
	}
	if err := s.backend.DeleteFolder(ctx, s.userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotFoundOrDenied
		}
		return err
	}
	s.removeFromSnapshot(id)
	return nil
}

// Path returns the chain of folders from the root down to id, computed over
// the cached list. A missing parent ends the walk silently, tolerating
// orphaned records.
func (s *FolderStore) Path(id string) []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var path []domain.Folder
	current, ok := findFolder(s.snapshot, id)
	for ok {
		path = append([]domain.Folder{current}, path...)
		if current.ParentID == "" {
			break
		}
		current, ok = findFolder(s.snapshot, current.ParentID)
	}
	return path
}

// Refresh re-reads the user's folder list into the snapshot and signals
// subscribers. On backend failure the snapshot resets to empty; subscribers
// only ever observe a list, never an error.
func (s *FolderStore) Refresh(ctx context.Context) {
	folders, err := s.backend.ListFolders(ctx, s.userID)
	if err != nil {
		folders = nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.snapshot = folders
	s.mu.Unlock()
	s.broker.notify()
}

func (s *FolderStore) close() {
	s.mu.Lock()
	s.closed = true
	s.snapshot = nil
	s.mu.Unlock()
	s.broker.close()
}

func (s *FolderStore) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *FolderStore) fetchOwned(ctx context.Context, id string) (domain.Folder, error) {
	folder, err := s.backend.GetFolder(ctx, s.userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Folder{}, domain.ErrNotFoundOrDenied
		}
		return domain.Folder{}, err
	}
	if folder.UserID != s.userID {
		return domain.Folder{}, domain.ErrNotFoundOrDenied
	}
	return folder, nil
}

// isDescendant reports whether candidate sits in the subtree rooted at
// ancestorID, walking parent pointers over the cached list.
func (s *FolderStore) isDescendant(ancestorID, candidateID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current, ok := findFolder(s.snapshot, candidateID)
	for ok {
		if current.ParentID == ancestorID {
			return true
		}
		if current.ParentID == "" {
			return false
		}
		current, ok = findFolder(s.snapshot, current.ParentID)
	}
	return false
}

func (s *FolderStore) childrenOf(id string) []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Folder
	for _, f := range s.snapshot {
		if f.ParentID == id {
			out = append(out, f)
		}
	}
	return out
}

func (s *FolderStore) removeFromSnapshot(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.snapshot {
		if f.ID == id {
			s.snapshot = append(s.snapshot[:i], s.snapshot[i+1:]...)
			return
		}
	}
}

func findFolder(folders []domain.Folder, id string) (domain.Folder, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
	}
	return domain.Folder{}, false
}
