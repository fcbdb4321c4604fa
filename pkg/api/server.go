// Package api provides the REST API server for chordid
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/logger"
	"github.com/james-see/chordid/pkg/score"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title chordid API
// @version 1.0
// @description Roman-numeral chord identification for pitch sets, live sessions and MIDI files
// @host localhost:8080
// @BasePath /api/v1

// Server holds the state shared by the handlers
type Server struct {
	defaultKey   harmony.Key
	sessionLimit int
	sessionTTL   time.Duration
	sessions     *sessionStore
	log          logrus.FieldLogger
}

// Option configures a Server
type Option func(*Server)

// WithDefaultKey sets the key used when a request names none
func WithDefaultKey(key harmony.Key) Option {
	return func(s *Server) {
		s.defaultKey = key
	}
}

// WithLogger sets the server's logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSessionLimit caps the number of live sessions; 0 means no cap
func WithSessionLimit(n int) Option {
	return func(s *Server) {
		s.sessionLimit = n
	}
}

// WithSessionTTL drops sessions left idle for d; 0 keeps them until deleted
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = d
	}
}

// NewServer creates a Server
func NewServer(opts ...Option) *Server {
	s := &Server{
		sessionLimit: defaultSessionLimit,
		sessionTTL:   defaultSessionTTL,
		log:          logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = newSessionStore(s.sessionLimit, s.sessionTTL, s.log)
	return s
}

// StartServer starts the API server on the specified port
func StartServer(port int, opts ...Option) error {
	return NewServer(opts...).Router().Run(fmt.Sprintf(":%d", port))
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.healthCheck)
		v1.GET("/keys", listKeys)
		v1.POST("/classify", s.classify)
		v1.POST("/analyze", s.analyze)
		v1.POST("/annotate", s.annotate)

		sessions := v1.Group("/sessions")
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.PUT("/:id/key", s.setSessionKey)
		sessions.POST("/:id/note-on", s.sessionNoteOn)
		sessions.POST("/:id/note-off", s.sessionNoteOff)
		sessions.DELETE("/:id", s.deleteSession)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API and the number of live sessions
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "chordid",
		"sessions": s.sessions.len(),
	})
}

// KeyInfo describes one selectable key
type KeyInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Display   string `json:"display"`
	Mode      string `json:"mode"`
	Spelling  string `json:"spelling"`
	Signature int    `json:"signature"`
}

func keyInfo(k harmony.Key) KeyInfo {
	return KeyInfo{
		ID:        k.ID,
		Name:      k.Name,
		Display:   k.Display(),
		Mode:      k.Mode.String(),
		Spelling:  k.Spelling.String(),
		Signature: k.Signature,
	}
}

// listKeys godoc
// @Summary List keys
// @Description Returns the 30 selectable key contexts; ids 1-15 spell chromatic roots with flats, 16-30 with sharps
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]KeyInfo
// @Router /keys [get]
func listKeys(c *gin.Context) {
	keys := harmony.Keys()
	res := make([]KeyInfo, len(keys))
	for i, k := range keys {
		res[i] = keyInfo(k)
	}
	c.JSON(http.StatusOK, gin.H{"keys": res})
}

// ClassifyRequest is the body of a classify call
type ClassifyRequest struct {
	Pitches []int  `json:"pitches" binding:"required"`
	Key     string `json:"key"` // name or id; the server default when empty
}

// LabelResponse is a rendered label plus the sonority it came from
type LabelResponse struct {
	Recognized bool          `json:"recognized"`
	Text       string        `json:"text"`
	Glyph      string        `json:"glyph,omitempty"`
	Label      harmony.Label `json:"label"`
	Bass       *int          `json:"bass,omitempty"`
	Intervals  []int         `json:"intervals"`
	Key        string        `json:"key"`
}

func labelResponse(label harmony.Label, pitches []harmony.Pitch, key harmony.Key) LabelResponse {
	res := LabelResponse{
		Recognized: !label.IsBlank(),
		Text:       label.String(),
		Glyph:      label.Glyph(),
		Label:      label,
		Intervals:  []int{},
		Key:        key.String(),
	}
	if len(pitches) > 0 {
		bass := pitches[0]
		for _, p := range pitches[1:] {
			if p < bass {
				bass = p
			}
		}
		b := int(bass)
		res.Bass = &b
		res.Intervals = append(res.Intervals, harmony.NewIntervalSet(bass, pitches)...)
	}
	return res
}

func (s *Server) resolveKey(name string) (harmony.Key, error) {
	if strings.TrimSpace(name) == "" {
		return s.defaultKey, nil
	}
	return harmony.ParseKey(name)
}

// classify godoc
// @Summary Classify a pitch set
// @Description Identifies the chord formed by the given MIDI pitches and renders it relative to the key
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Pitches and key"
// @Success 200 {object} LabelResponse
// @Failure 400 {object} map[string]string
// @Router /classify [post]
func (s *Server) classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := s.resolveKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pitches := make([]harmony.Pitch, len(req.Pitches))
	for i, p := range req.Pitches {
		pitches[i] = harmony.Pitch(p)
	}
	label, _ := harmony.ClassifyPitches(pitches, key)
	c.JSON(http.StatusOK, labelResponse(label, pitches, key))
}

// readUpload returns the content of the "file" form field
func readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func (s *Server) analyzer(c *gin.Context) (*score.Analyzer, bool) {
	var key harmony.Key
	if name := c.Query("key"); name != "" {
		k, err := harmony.ParseKey(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		key = k
	}
	return score.NewAnalyzer(score.WithKey(key), score.WithLogger(s.log)), true
}

func scoreError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, score.ErrNotMIDI) || errors.Is(err, score.ErrNoKey) || errors.Is(err, score.ErrNoNotes) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// analyze godoc
// @Summary Analyze a MIDI file
// @Description Upload a Standard MIDI File and receive its Roman-numeral timeline. Without a key the file's key signature is used.
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to analyze"
// @Param key query string false "Key name or id, e.g. \"Eb minor\" or 14"
// @Success 200 {object} score.Timeline
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /analyze [post]
func (s *Server) analyze(c *gin.Context) {
	a, ok := s.analyzer(c)
	if !ok {
		return
	}
	data, _, ok := readUpload(c)
	if !ok {
		return
	}
	tl, err := a.Analyze(data)
	if err != nil {
		scoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// annotate godoc
// @Summary Annotate a MIDI file
// @Description Upload a Standard MIDI File and receive a copy with one marker event per chord label
// @Tags analysis
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "MIDI file to annotate"
// @Param key query string false "Key name or id"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /annotate [post]
func (s *Server) annotate(c *gin.Context) {
	a, ok := s.analyzer(c)
	if !ok {
		return
	}
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}
	result, _, err := a.Annotate(data)
	if err != nil {
		scoreError(c, err)
		return
	}

	// Generate output filename
	outputName := "annotated.mid"
	if base := strings.TrimSuffix(filename, ".mid"); base != "" && base != filename {
		outputName = base + ".annotated.mid"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, "audio/midi", result)
}
