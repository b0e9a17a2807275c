package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

const streamKeepAlive = 30 * time.Second

func prepareSSE(c echo.Context) (http.Flusher, error) {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return nil, c.String(http.StatusInternalServerError, "stream unsupported")
	}
	c.Response().WriteHeader(http.StatusOK)
	return flusher, nil
}

func writeSSE(c echo.Context, flusher http.Flusher, payload any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := c.Response().Write(data); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// streamSnapshots pushes an initial snapshot and then a fresh one on every
// change signal, with periodic keepalives, until the client disconnects or
// the session closes.
func (s *server) streamSnapshots(c echo.Context, snapshot func() any, subscribe func() (<-chan struct{}, func())) error {
	flusher, err := prepareSSE(c)
	if err != nil {
		return err
	}
	ch, cancel := subscribe()
	defer cancel()

	if err := writeSSE(c, flusher, snapshot()); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(c, flusher, snapshot()); err != nil {
				return nil
			}
		case <-keepAlive.C:
			if _, err := c.Response().Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func (s *server) streamNotes(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return s.streamSnapshots(c,
		func() any { return sess.Notes.List(noteFilterFromQuery(c)) },
		sess.Notes.Subscribe)
}

func (s *server) streamFolders(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return s.streamSnapshots(c,
		func() any { return sess.Folders.Snapshot() },
		sess.Folders.Subscribe)
}

func (s *server) streamTasks(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return s.streamSnapshots(c,
		func() any { return sess.Tasks.List(taskFilterFromQuery(c)) },
		sess.Tasks.Subscribe)
}

// watchNote streams live values for a single note. A null event means the
// note is gone or inaccessible; the stream ends when the watch pool entry is
// torn down.
func (s *server) watchNote(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	ch, release, err := sess.Notes.Watch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	defer release()

	flusher, err := prepareSSE(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case note, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(c, flusher, note); err != nil {
				return nil
			}
		case <-keepAlive.C:
			if _, err := c.Response().Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
