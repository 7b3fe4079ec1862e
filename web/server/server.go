package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Server handles web requests for the sphere raytracer
type Server struct {
	port     int
	upgrader websocket.Upgrader
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{
		port: port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024, // Frames are large binary messages
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RenderRequest represents a render request from the client.
// Nil fields keep the scene's own viewport values.
type RenderRequest struct {
	Scene      string   `json:"scene"`      // Scene ID (e.g., "default" or "json:glass-row")
	Width      *int     `json:"width"`      // Image width
	Height     *int     `json:"height"`     // Image height
	VFov       *float64 `json:"vfov"`       // Vertical field of view
	Samples    *int     `json:"samples"`    // Samples per pixel
	Depth      *int     `json:"depth"`      // Maximum bounce depth; 0 renders black
	Stratified *bool    `json:"stratified"` // Regular sub-pixel grid
	Seed       *int64   `json:"seed"`       // Random seed
	Frames     int      `json:"frames"`     // Frames to stream (0 = until the client disconnects)
}

// viewport returns the request as viewport overrides
func (req *RenderRequest) viewport() renderer.ViewportOverride {
	return renderer.ViewportOverride{
		Width:           req.Width,
		Height:          req.Height,
		VFov:            req.VFov,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.Depth,
		Stratified:      req.Stratified,
		Seed:            req.Seed,
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/stream", s.handleStream)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and JSON scenes grouped by category
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: "default"}

	if sceneID := query.Get("scene"); sceneID != "" {
		req.Scene = sceneID
	}

	var err error
	if req.Width, err = parseOptionalIntParam(query, "width", 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseOptionalIntParam(query, "height", 1, 2000); err != nil {
		return nil, err
	}
	if hasParam(query, "vfov") {
		vfov, err := parseFloatParam(query, "vfov", 0, renderer.MinVFov, renderer.MaxVFov)
		if err != nil {
			return nil, err
		}
		req.VFov = &vfov
	}
	if req.Samples, err = parseOptionalIntParam(query, "samples", 1, 10000); err != nil {
		return nil, err
	}
	if req.Depth, err = parseOptionalIntParam(query, "depth", 0, 1000); err != nil {
		return nil, err
	}
	if hasParam(query, "stratified") {
		stratified, err := parseBoolParam(query, "stratified", false)
		if err != nil {
			return nil, err
		}
		req.Stratified = &stratified
	}
	if hasParam(query, "seed") {
		seed, err := parseIntParam(query, "seed", 0, 0, 1<<30)
		if err != nil {
			return nil, err
		}
		seed64 := int64(seed)
		req.Seed = &seed64
	}
	if req.Frames, err = parseIntParam(query, "frames", 0, 1, 1000000); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width != nil && req.Height != nil && req.Samples != nil &&
		(*req.Width)*(*req.Height) > 800*600 && *req.Samples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// createScene builds the requested scene with the request's viewport overrides
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	return scene.Create(req.Scene, req.viewport())
}

// sceneErrorStatus maps scene creation errors to HTTP status codes
func sceneErrorStatus(err error) int {
	switch {
	case errors.Is(err, scene.ErrUnknownScene):
		return http.StatusNotFound
	case errors.Is(err, renderer.ErrInvalidConfig), errors.Is(err, scene.ErrInvalidScene):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// hasParam reports whether key was given a non-empty value
func hasParam(values url.Values, key string) bool {
	return values.Get(key) != ""
}

// parseOptionalIntParam returns nil when key is absent, otherwise the validated value
func parseOptionalIntParam(values url.Values, key string, min, max int) (*int, error) {
	if !hasParam(values, key) {
		return nil, nil
	}
	parsed, err := parseIntParam(values, key, 0, min, max)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if !(parsed >= min && parsed <= max) {
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes {"error": message}
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
