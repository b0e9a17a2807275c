package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"notevault-api/domain"
	"notevault-api/store"
)

func noteFilterFromQuery(c echo.Context) domain.NoteFilter {
	var f domain.NoteFilter
	if v := c.QueryParam("pinned"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsPinned = &b
		}
	}
	if v := c.QueryParam("favorite"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsFavorite = &b
		}
	}
	f.Tags = splitCSV(c.QueryParam("tags"))
	f.SearchQuery = c.QueryParam("q")
	f.SortBy = c.QueryParam("sortBy")
	f.SortOrder = domain.SortOrder(c.QueryParam("sortOrder"))
	return f
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *server) listNotes(c echo.Context) (err error) {
	metrics, spanCtx := newListRequestMetrics(c.Request().Context(), s.deps.Logger)
	if spanCtx != nil {
		c.SetRequest(c.Request().WithContext(spanCtx))
	}
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()

	sess, sessErr := s.session(c)
	if sessErr != nil {
		metrics.SetErrorStage("auth")
		var he *echo.HTTPError
		if errors.As(sessErr, &he) {
			err = c.String(he.Code, fmt.Sprint(he.Message))
			return err
		}
		err = sessErr
		return err
	}

	filter := noteFilterFromQuery(c)
	if metadataOnly, _ := strconv.ParseBool(c.QueryParam("metadata")); metadataOnly {
		meta := sess.Notes.Metadata(filter)
		metrics.SetNotesReturned(len(meta))
		err = c.JSON(http.StatusOK, meta)
		return err
	}
	notes := sess.Notes.List(filter)
	metrics.SetNotesReturned(len(notes))
	err = c.JSON(http.StatusOK, notes)
	return err
}

func (s *server) createNote(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var input store.NoteInput
	if err := decodeBody(c, &input); err != nil {
		return err
	}
	if strings.TrimSpace(input.Title) == "" {
		return c.String(http.StatusBadRequest, "title is required")
	}
	id, err := sess.Notes.Create(c.Request().Context(), input)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (s *server) getNote(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	note, err := sess.Notes.GetOnce(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, note)
}

// resolveNote accepts either a note id or a slash path under ref=.
func (s *server) resolveNote(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	ref := c.QueryParam("ref")
	if ref == "" {
		return c.String(http.StatusBadRequest, "ref is required")
	}
	note, err := sess.Notes.NoteByIDOrPath(c.Request().Context(), ref)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, note)
}

func (s *server) updateNote(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var patch store.NotePatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	if err := sess.Notes.Update(c.Request().Context(), c.Param("id"), patch); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) deleteNote(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.Notes.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) togglePin(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.Notes.TogglePin(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) toggleFavorite(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.Notes.ToggleFavorite(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) noteBacklinks(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	note, err := sess.Notes.GetOnce(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Notes.Backlinks(note.Title))
}

func (s *server) notePath(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	note, err := sess.Notes.GetOnce(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": sess.Notes.BuildNotePath(note)})
}

func (s *server) noteTags(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Notes.AllTags())
}
