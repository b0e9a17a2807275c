package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type folderCreateRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

type folderRenameRequest struct {
	Name string `json:"name"`
}

type folderMoveRequest struct {
	ParentID string `json:"parentId"`
}

func (s *server) listFolders(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Folders.Snapshot())
}

func (s *server) createFolder(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req folderCreateRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.String(http.StatusBadRequest, "name is required")
	}
	id, err := sess.Folders.Create(c.Request().Context(), req.Name, req.ParentID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (s *server) renameFolder(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req folderRenameRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.String(http.StatusBadRequest, "name is required")
	}
	if err := sess.Folders.Rename(c.Request().Context(), c.Param("id"), req.Name); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) moveFolder(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req folderMoveRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := sess.Folders.Move(c.Request().Context(), c.Param("id"), req.ParentID); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) folderPath(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if _, err := sess.Folders.Get(c.Request().Context(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Folders.Path(id))
}

func (s *server) deleteFolder(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.Folders.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
