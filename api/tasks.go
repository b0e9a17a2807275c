package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"notevault-api/domain"
	"notevault-api/store"
)

type taskStatusRequest struct {
	Status domain.TaskStatus `json:"status"`
}

type taskPriorityRequest struct {
	Priority domain.Priority `json:"priority"`
}

func taskFilterFromQuery(c echo.Context) domain.TaskFilter {
	var f domain.TaskFilter
	for _, v := range splitCSV(c.QueryParam("status")) {
		f.Status = append(f.Status, domain.TaskStatus(v))
	}
	for _, v := range splitCSV(c.QueryParam("priority")) {
		f.Priority = append(f.Priority, domain.Priority(v))
	}
	f.Tags = splitCSV(c.QueryParam("tags"))
	if v := c.QueryParam("linkedNoteId"); v != "" {
		f.LinkedNoteID = &v
	}
	f.SearchQuery = c.QueryParam("q")
	return f
}

func (s *server) listTasks(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Tasks.List(taskFilterFromQuery(c)))
}

func (s *server) createTask(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var input store.TaskInput
	if err := decodeBody(c, &input); err != nil {
		return err
	}
	if strings.TrimSpace(input.Title) == "" {
		return c.String(http.StatusBadRequest, "title is required")
	}
	if input.Priority != "" && !domain.ValidPriority(input.Priority) {
		return c.String(http.StatusBadRequest, "unknown priority")
	}
	if input.Status != "" && !domain.ValidStatus(input.Status) {
		return c.String(http.StatusBadRequest, "unknown status")
	}
	id, err := sess.Tasks.Create(c.Request().Context(), input)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (s *server) getTask(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	task, err := sess.Tasks.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *server) updateTask(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var patch store.TaskPatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	if patch.Priority != nil && !domain.ValidPriority(*patch.Priority) {
		return c.String(http.StatusBadRequest, "unknown priority")
	}
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return c.String(http.StatusBadRequest, "unknown status")
	}
	if err := sess.Tasks.Update(c.Request().Context(), c.Param("id"), patch); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) updateTaskStatus(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req taskStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if !domain.ValidStatus(req.Status) {
		return c.String(http.StatusBadRequest, "unknown status")
	}
	if err := sess.Tasks.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) updateTaskPriority(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req taskPriorityRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if !domain.ValidPriority(req.Priority) {
		return c.String(http.StatusBadRequest, "unknown priority")
	}
	if err := sess.Tasks.UpdatePriority(c.Request().Context(), c.Param("id"), req.Priority); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) deleteTask(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.Tasks.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) taskTags(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Tasks.AllTags())
}
