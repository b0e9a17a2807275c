package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"notevault-api/store"
)

type assistantRequest struct {
	NoteID  string `json:"noteId,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Concept string `json:"concept,omitempty"`
	Message string `json:"message,omitempty"`
}

// noteContent resolves the working text for a generation call: an explicit
// content field wins, otherwise the referenced note's content is loaded.
func (s *server) noteContent(c echo.Context, sess *store.Session, req assistantRequest) (string, string, error) {
	if strings.TrimSpace(req.Content) != "" {
		return req.Title, req.Content, nil
	}
	if req.NoteID == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "content or noteId is required")
	}
	note, err := sess.Notes.GetOnce(c.Request().Context(), req.NoteID)
	if err != nil {
		return "", "", err
	}
	return note.Title, note.Content, nil
}

func (s *server) aiSummarize(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req assistantRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	_, content, err := s.noteContent(c, sess, req)
	if err != nil {
		return s.respondError(c, err)
	}
	summary, err := s.deps.Assistant.Summarize(c.Request().Context(), content)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}

func (s *server) aiExplain(c echo.Context) error {
	if _, err := s.session(c); err != nil {
		return err
	}
	var req assistantRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Concept) == "" {
		return c.String(http.StatusBadRequest, "concept is required")
	}
	explanation, err := s.deps.Assistant.Explain(c.Request().Context(), req.Concept)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"explanation": explanation})
}

func (s *server) aiQuiz(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req assistantRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	_, content, err := s.noteContent(c, sess, req)
	if err != nil {
		return s.respondError(c, err)
	}
	questions, err := s.deps.Assistant.GenerateQuiz(c.Request().Context(), content)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, questions)
}

func (s *server) aiTags(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req assistantRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	title, content, err := s.noteContent(c, sess, req)
	if err != nil {
		return s.respondError(c, err)
	}
	tags, err := s.deps.Assistant.SuggestTags(c.Request().Context(), title, content)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *server) aiChat(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req assistantRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.String(http.StatusBadRequest, "message is required")
	}
	var noteContext string
	if req.NoteID != "" {
		note, err := sess.Notes.GetOnce(c.Request().Context(), req.NoteID)
		if err != nil {
			return s.respondError(c, err)
		}
		noteContext = note.Content
	}
	answer, err := s.deps.Assistant.Chat(c.Request().Context(), req.Message, noteContext)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}
