package httpserver

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/flow"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/genai"
)

// AudioSource exposes the synthesized PCM of the most recent utterance.
type AudioSource interface {
	Bytes() []byte
}

// Deps are the per-session factories. Speech resources are not shared
// between sessions, so each session gets its own speaker, audio buffer and
// listener.
type Deps struct {
	Generator   flow.Generator
	NewSpeech   func() (flow.Speaker, AudioSource)
	NewListener func() flow.Listener
}

type sessionEntry struct {
	session *flow.Session
	audio   AudioSource
}

// Server holds the route handlers and the in-memory session store.
type Server struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// New builds a configured Echo instance with all routes registered.
func New(deps Deps) *echo.Echo {
	s := &Server{
		deps:     deps,
		sessions: make(map[string]*sessionEntry),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")
	api.POST("/sessions", s.createSession)
	api.GET("/sessions/:id", s.getSession)
	api.POST("/sessions/:id/level", s.selectLevel)
	api.POST("/sessions/:id/topic", s.selectTopic)
	api.POST("/sessions/:id/custom-topic", s.selectCustomTopic)
	api.POST("/sessions/:id/start", s.startConversation)
	api.POST("/sessions/:id/messages", s.sendMessage)
	api.POST("/sessions/:id/listen", s.startListening)
	api.DELETE("/sessions/:id/listen", s.stopListening)
	api.POST("/sessions/:id/listen/audio", s.feedAudio)
	api.GET("/sessions/:id/audio", s.getAudio)
	api.POST("/sessions/:id/reset", s.resetSession)
	api.DELETE("/sessions/:id", s.deleteSession)

	return e
}

func (s *Server) createSession(c echo.Context) error {
	speaker, audio := s.deps.NewSpeech()
	sess := flow.NewSession(s.deps.Generator, speaker, s.deps.NewListener())

	s.mu.Lock()
	s.sessions[sess.ID] = &sessionEntry{session: sess, audio: audio}
	s.mu.Unlock()

	log.Infof("session %s created", sess.ID)
	return c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) lookup(c echo.Context) (*sessionEntry, error) {
	s.mu.Lock()
	entry, ok := s.sessions[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	return entry, nil
}

func (s *Server) getSession(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

type levelRequest struct {
	Level genai.Level `json:"level"`
}

func (s *Server) selectLevel(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req levelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := entry.session.SelectLevel(c.Request().Context(), req.Level); err != nil {
		return flowError(err)
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

type topicRequest struct {
	TopicID int `json:"topic_id"`
}

func (s *Server) selectTopic(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req topicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := entry.session.SelectTopic(c.Request().Context(), req.TopicID); err != nil {
		return flowError(err)
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

type customTopicRequest struct {
	Title string      `json:"title"`
	Level genai.Level `json:"level"`
}

func (s *Server) selectCustomTopic(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req customTopicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := entry.session.SelectCustomTopic(c.Request().Context(), req.Title, req.Level); err != nil {
		return flowError(err)
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

func (s *Server) startConversation(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	if _, err := entry.session.StartConversation(c.Request().Context()); err != nil {
		return flowError(err)
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) sendMessage(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := entry.session.SendUserMessage(c.Request().Context(), req.Text); err != nil {
		return flowError(err)
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

func (s *Server) startListening(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	if err := entry.session.StartListening(); err != nil {
		return flowError(err)
	}
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

func (s *Server) stopListening(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	entry.session.StopListening()
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

func (s *Server) feedAudio(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	pcm, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable audio body")
	}
	if err := entry.session.FeedAudio(pcm); err != nil {
		log.Warnf("session %s: feed audio: %v", entry.session.ID, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) getAudio(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "audio/pcm", entry.audio.Bytes())
}

func (s *Server) resetSession(c echo.Context) error {
	entry, err := s.lookup(c)
	if err != nil {
		return err
	}
	entry.session.Reset()
	return c.JSON(http.StatusOK, entry.session.Snapshot())
}

func (s *Server) deleteSession(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	entry, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	entry.session.Close()
	log.Infof("session %s closed", id)
	return c.NoContent(http.StatusNoContent)
}

// flowError maps session errors onto HTTP status codes. Busy is a conflict
// (the slot is taken), a wrong-stage operation is unprocessable (the client
// state is stale).
func flowError(err error) error {
	var stageErr *flow.StageError
	switch {
	case errors.Is(err, flow.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &stageErr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, flow.ErrEmptyMessage), errors.Is(err, flow.ErrEmptyTopic):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, flow.ErrUnknownTopic):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
