package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"notevault-api/ai"
	"notevault-api/domain"
	"notevault-api/search"
	"notevault-api/store"
)

const requestBodyMaxSize = 1 << 20

// Deps bundles what the handlers need.
type Deps struct {
	Sessions  Sessions
	Auth      Authenticator
	Assistant Assistant
	Search    search.Config
	Logger    *log.Logger
}

type server struct {
	deps Deps

	mu      sync.Mutex
	indexes map[string]*userIndex
}

type userIndex struct {
	index  *search.Index
	cancel context.CancelFunc
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	s := &server{deps: deps, indexes: make(map[string]*userIndex)}

	e.GET("/healthz", healthz)

	e.POST("/api/session", s.login)
	e.DELETE("/api/session", s.logout)

	e.GET("/api/notes", s.listNotes)
	e.POST("/api/notes", s.createNote)
	e.GET("/api/notes/tags", s.noteTags)
	e.GET("/api/notes/resolve", s.resolveNote)
	e.GET("/api/notes/stream", s.streamNotes)
	e.GET("/api/notes/:id", s.getNote)
	e.PUT("/api/notes/:id", s.updateNote)
	e.DELETE("/api/notes/:id", s.deleteNote)
	e.POST("/api/notes/:id/pin", s.togglePin)
	e.POST("/api/notes/:id/favorite", s.toggleFavorite)
	e.GET("/api/notes/:id/backlinks", s.noteBacklinks)
	e.GET("/api/notes/:id/path", s.notePath)
	e.GET("/api/notes/:id/watch", s.watchNote)

	e.GET("/api/folders", s.listFolders)
	e.POST("/api/folders", s.createFolder)
	e.GET("/api/folders/stream", s.streamFolders)
	e.PUT("/api/folders/:id/rename", s.renameFolder)
	e.PUT("/api/folders/:id/move", s.moveFolder)
	e.GET("/api/folders/:id/path", s.folderPath)
	e.DELETE("/api/folders/:id", s.deleteFolder)

	e.GET("/api/tasks", s.listTasks)
	e.POST("/api/tasks", s.createTask)
	e.GET("/api/tasks/tags", s.taskTags)
	e.GET("/api/tasks/stream", s.streamTasks)
	e.GET("/api/tasks/:id", s.getTask)
	e.PUT("/api/tasks/:id", s.updateTask)
	e.PUT("/api/tasks/:id/status", s.updateTaskStatus)
	e.PUT("/api/tasks/:id/priority", s.updateTaskPriority)
	e.DELETE("/api/tasks/:id", s.deleteTask)

	e.POST("/api/ai/summarize", s.aiSummarize)
	e.POST("/api/ai/explain", s.aiExplain)
	e.POST("/api/ai/quiz", s.aiQuiz)
	e.POST("/api/ai/tags", s.aiTags)
	e.POST("/api/ai/chat", s.aiChat)

	e.GET("/api/search", s.searchAll)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// session authenticates the request and returns the caller's live session.
func (s *server) session(c echo.Context) (*store.Session, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		// EventSource cannot set headers, so streams accept a token param.
		if token := c.QueryParam("token"); token != "" {
			header = "Bearer " + token
		}
	}
	userID, err := s.deps.Auth.UserIDFromAuthHeader(header)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	sess, err := s.deps.Sessions.Authenticate(c.Request().Context(), userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return sess, nil
}

func (s *server) login(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"userId": sess.UserID})
}

func (s *server) logout(c echo.Context) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	userID, err := s.deps.Auth.UserIDFromAuthHeader(header)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	s.dropIndex(userID)
	s.deps.Sessions.Logout(userID)
	return c.NoContent(http.StatusNoContent)
}

// decodeBody reads a size-capped JSON body into v, rejecting unknown fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

// respondError maps domain and gateway errors onto HTTP statuses.
func (s *server) respondError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.String(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFoundOrDenied):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSelfParent), errors.Is(err, domain.ErrCyclicMove):
		return c.String(http.StatusConflict, err.Error())
	}

	var cfgErr *ai.ConfigurationError
	var rlErr *ai.RateLimitedError
	var reqErr *ai.RequestFailedError
	switch {
	case errors.As(err, &cfgErr):
		return c.String(http.StatusBadGateway, cfgErr.Error())
	case errors.As(err, &rlErr):
		return c.String(http.StatusTooManyRequests, rlErr.Error())
	case errors.As(err, &reqErr):
		return c.String(http.StatusBadGateway, reqErr.Error())
	}

	s.deps.Logger.WithError(err).Error("request failed")
	return c.String(http.StatusInternalServerError, err.Error())
}
