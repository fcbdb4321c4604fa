package api

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/sonority"
	"github.com/sirupsen/logrus"
)

const (
	defaultSessionLimit = 256
	defaultSessionTTL   = 30 * time.Minute
)

var errSessionLimit = errors.New("too many sessions")

// session is one live tracker driven over HTTP. Its mutex serializes the events
// of concurrent requests.
type session struct {
	mu       sync.Mutex
	id       uuid.UUID
	tracker  *sonority.Tracker
	created  time.Time
	lastUsed time.Time // guarded by the store's mutex
	events   int
}

// sessionStore holds at most limit sessions and drops any left idle for ttl.
// A zero limit or ttl disables that bound.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	limit    int
	ttl      time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

func newSessionStore(limit int, ttl time.Duration, log logrus.FieldLogger) *sessionStore {
	return &sessionStore{
		sessions: make(map[uuid.UUID]*session),
		limit:    limit,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

func (st *sessionStore) create(key harmony.Key) (*session, error) {
	id := uuid.New()

	st.mu.Lock()
	now := st.now()
	st.evictIdle(now)
	if st.limit > 0 && len(st.sessions) >= st.limit {
		st.mu.Unlock()
		return nil, errSessionLimit
	}
	sess := &session{
		id:       id,
		created:  now,
		lastUsed: now,
		tracker: sonority.New(
			sonority.WithKey(key),
			sonority.WithLogger(st.log.WithField("session", id.String())),
		),
	}
	st.sessions[id] = sess
	st.mu.Unlock()

	st.log.WithFields(logrus.Fields{"session": id.String(), "key": key.String()}).Info("session created")
	return sess, nil
}

// get returns a live session and marks it used
func (st *sessionStore) get(id uuid.UUID) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.evictIdle(now)
	sess, ok := st.sessions[id]
	if ok {
		sess.lastUsed = now
	}
	return sess, ok
}

func (st *sessionStore) delete(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// evictIdle must be called with st.mu held
func (st *sessionStore) evictIdle(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, sess := range st.sessions {
		if now.Sub(sess.lastUsed) >= st.ttl {
			delete(st.sessions, id)
			st.log.WithField("session", id.String()).Info("idle session expired")
		}
	}
}

// SessionState is the observable state of a session
type SessionState struct {
	ID      string        `json:"id"`
	Key     KeyInfo       `json:"key"`
	Pitches []int         `json:"pitches"`
	Events  int           `json:"events"`
	Created time.Time     `json:"created"`
	Result  LabelResponse `json:"result"`
}

// state must be called with sess.mu held
func (sess *session) state() SessionState {
	pitches := sess.tracker.Pitches()
	ints := make([]int, len(pitches))
	for i, p := range pitches {
		ints[i] = int(p)
	}
	key := sess.tracker.Key()
	return SessionState{
		ID:      sess.id.String(),
		Key:     keyInfo(key),
		Pitches: ints,
		Events:  sess.events,
		Created: sess.created,
		Result:  labelResponse(sess.tracker.Label(), pitches, key),
	}
}

// KeyRequest selects a key by name or id; empty unsets it
type KeyRequest struct {
	Key string `json:"key"`
}

// NoteRequest is a note-on or note-off
type NoteRequest struct {
	Pitch    *int  `json:"pitch" binding:"required,min=0,max=127"`
	Velocity uint8 `json:"velocity"`
}

// lookup resolves the :id parameter, writing the error response when it fails
func (s *Server) lookup(c *gin.Context) (*session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}
	sess, ok := s.sessions.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

// createSession godoc
// @Summary Create a session
// @Description Starts a live sonority tracker. The key defaults to the server's default key.
// @Description Sessions idle longer than the server's TTL are dropped.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body KeyRequest false "Initial key"
// @Success 201 {object} SessionState
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /sessions [post]
func (s *Server) createSession(c *gin.Context) {
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := s.resolveKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.sessions.create(key)
	if err != nil {
		s.log.WithError(err).Warn("session refused")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.JSON(http.StatusCreated, sess.state())
}

// getSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} SessionState
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.JSON(http.StatusOK, sess.state())
}

// setSessionKey godoc
// @Summary Change the session key
// @Description Selecting a key clears the sounding pitches
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body KeyRequest true "Key name or id"
// @Success 200 {object} SessionState
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/key [put]
func (s *Server) setSessionKey(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := harmony.ParseKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.tracker.SetKey(key)
	sess.events++
	c.JSON(http.StatusOK, sess.state())
}

// sessionNoteOn godoc
// @Summary Note on
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body NoteRequest true "Pitch and velocity"
// @Success 200 {object} SessionState
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/note-on [post]
func (s *Server) sessionNoteOn(c *gin.Context) {
	s.noteEvent(c, true)
}

// sessionNoteOff godoc
// @Summary Note off
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body NoteRequest true "Pitch"
// @Success 200 {object} SessionState
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/note-off [post]
func (s *Server) sessionNoteOff(c *gin.Context) {
	s.noteEvent(c, false)
}

func (s *Server) noteEvent(c *gin.Context, on bool) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if on {
		sess.tracker.NoteOn(harmony.Pitch(*req.Pitch), req.Velocity)
	} else {
		sess.tracker.NoteOff(harmony.Pitch(*req.Pitch))
	}
	sess.events++
	c.JSON(http.StatusOK, sess.state())
}

// deleteSession godoc
// @Summary Delete a session
// @Tags sessions
// @Param id path string true "Session id"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [delete]
func (s *Server) deleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if !s.sessions.delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	s.log.WithField("session", id.String()).Info("session deleted")
	c.Status(http.StatusNoContent)
}
