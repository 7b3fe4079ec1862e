package server

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// handleRender renders a single frame and returns it as a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		writeJSONError(w, sceneErrorStatus(err), err.Error())
		return
	}

	frame, err := renderSingleFrame(sceneObj)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Render error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.ToImage()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to encode image: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Render-Time-Ms", strconv.FormatInt(frame.Stats.Duration.Milliseconds(), 10))
	w.Header().Set("X-Samples-Per-Pixel", strconv.FormatFloat(frame.Stats.AverageSamples, 'f', -1, 64))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// renderSingleFrame renders one frame of sceneObj with its own viewport
func renderSingleFrame(sceneObj *scene.Scene) (*renderer.Frame, error) {
	frameRenderer, err := renderer.NewFrameRenderer(sceneObj, sceneObj.Viewport)
	if err != nil {
		return nil, err
	}
	defer frameRenderer.Close()

	return frameRenderer.RenderFrame()
}
