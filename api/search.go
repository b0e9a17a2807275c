package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"notevault-api/search"
	"notevault-api/store"
)

// indexFor returns the caller's search index, building one on first use. The
// index tracks the note store and rebuilds itself on every change signal; it
// is torn down on logout.
func (s *server) indexFor(sess *store.Session) *search.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.indexes[sess.UserID]; ok {
		return entry.index
	}
	ctx, cancel := context.WithCancel(context.Background())
	ix := search.Watch(ctx, sess.Notes, s.deps.Search)
	s.indexes[sess.UserID] = &userIndex{index: ix, cancel: cancel}
	return ix
}

func (s *server) dropIndex(userID string) {
	s.mu.Lock()
	entry, ok := s.indexes[userID]
	if ok {
		delete(s.indexes, userID)
	}
	s.mu.Unlock()
	if ok {
		entry.cancel()
	}
}

func (s *server) searchAll(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	query := c.QueryParam("q")
	if query == "" {
		return c.String(http.StatusBadRequest, "q is required")
	}
	results := s.indexFor(sess).Search(query)
	if results == nil {
		results = []search.Result{}
	}
	return c.JSON(http.StatusOK, results)
}
