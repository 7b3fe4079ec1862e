package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

const streamWriteTimeout = 10 * time.Second

var streamCounter atomic.Int64

// StreamEvent is a JSON text message on the frame stream. Every binary message
// that follows a "frame" event holds that frame's RGB bytes, bottom row first.
type StreamEvent struct {
	Type    string          `json:"type"` // "console", "frame", "error", "complete"
	Console *ConsoleMessage `json:"console,omitempty"`
	Frame   *FrameInfo      `json:"frame,omitempty"`
	Message string          `json:"message,omitempty"`
}

// FrameInfo describes a streamed frame
type FrameInfo struct {
	Number           int     `json:"number"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	DurationMs       float64 `json:"durationMs"`
	AverageSamples   float64 `json:"averageSamples"`
	AverageLuminance float64 `json:"averageLuminance"`
}

// handleStream renders frames continuously and pushes each one over a websocket.
// Text messages from the client move the camera between frames:
//
//	{"position": [0, 0, 1], "lookAt": [0, 0, -1], "vfov": 60, "zoom": -5}
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Validate before upgrading so bad requests get a normal HTTP error
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
	frameRenderer, err := renderer.NewFrameRenderer(sceneObj, sceneObj.Viewport)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Printf("Websocket upgrade failed: %v", err)
		frameRenderer.Close()
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamID := fmt.Sprintf("stream-%d", streamCounter.Add(1))
	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewWebLogger(streamID, consoleChan)
	logger.Printf("Streaming %s at %dx%d, %d samples per pixel\n",
		req.Scene, sceneObj.Viewport.Width, sceneObj.Viewport.Height, sceneObj.Viewport.Samples())

	loop := renderer.NewFrameLoop(frameRenderer, renderer.FrameLoopConfig{
		MaxFrames:     req.Frames,
		StatsInterval: time.Second,
	}, logger)

	notices := make(chan StreamEvent, 8)
	go readControlMessages(conn, loop, notices, cancel)

	frames, errs := loop.Run(ctx)
	writeStream(conn, frames, errs, consoleChan, notices, cancel)
}

// readControlMessages applies camera control messages until the connection fails.
// It is the only reader of conn.
func readControlMessages(conn *websocket.Conn, loop *renderer.FrameLoop, notices chan<- StreamEvent, cancel context.CancelFunc) {
	defer cancel()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		update, err := parseCameraControl(data)
		if err != nil {
			select {
			case notices <- StreamEvent{Type: "error", Message: err.Error()}:
			default:
			}
			continue
		}
		loop.UpdateCamera(update)
	}
}

// writeStream is the only writer of conn. It forwards frames, console lines and
// notices until the frame loop stops, then reports how it ended and closes the stream.
func writeStream(conn *websocket.Conn, frames <-chan *renderer.Frame, errs <-chan error,
	consoleChan <-chan ConsoleMessage, notices <-chan StreamEvent, cancel context.CancelFunc) {

	broken := false
	send := func(messageType int, data []byte) {
		if broken {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteMessage(messageType, data); err != nil {
			// Stop rendering but keep draining so the frame loop can exit
			broken = true
			cancel()
		}
	}
	sendEvent := func(event StreamEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		send(websocket.TextMessage, data)
	}

	for frames != nil {
		select {
		case frame, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			sendEvent(StreamEvent{Type: "frame", Frame: &FrameInfo{
				Number:           frame.Number,
				Width:            frame.Width,
				Height:           frame.Height,
				DurationMs:       float64(frame.Stats.Duration.Microseconds()) / 1000.0,
				AverageSamples:   frame.Stats.AverageSamples,
				AverageLuminance: frame.AverageLuminance(),
			}})
			send(websocket.BinaryMessage, frame.Pixels)

		case msg := <-consoleChan:
			sendEvent(StreamEvent{Type: "console", Console: &msg})

		case notice := <-notices:
			sendEvent(notice)
		}
	}

	// Flush console lines logged by the final frame
	for drained := false; !drained; {
		select {
		case msg := <-consoleChan:
			sendEvent(StreamEvent{Type: "console", Console: &msg})
		default:
			drained = true
		}
	}

	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		sendEvent(StreamEvent{Type: "error", Message: fmt.Sprintf("Render error: %v", err)})
	} else {
		sendEvent(StreamEvent{Type: "complete", Message: "Streaming completed"})
	}

	send(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// parseCameraControl turns a control message into one camera update applied as a whole
func parseCameraControl(data []byte) (renderer.CameraUpdate, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("control message is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("control message must be an object")
	}

	var edits []func(config *renderer.CameraConfig)

	if value := root.Get("position"); value.Exists() {
		position, err := scene.ParseVec3(value, "position")
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(config *renderer.CameraConfig) { config.Position = position })
	}
	if value := root.Get("lookAt"); value.Exists() {
		lookAt, err := scene.ParseVec3(value, "lookAt")
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(config *renderer.CameraConfig) { config.LookAt = lookAt })
	}
	if value := root.Get("vfov"); value.Exists() {
		if value.Type != gjson.Number {
			return nil, fmt.Errorf("vfov must be a number")
		}
		vfov := value.Float()
		edits = append(edits, func(config *renderer.CameraConfig) { config.VFov = vfov })
	}
	if value := root.Get("zoom"); value.Exists() {
		if value.Type != gjson.Number {
			return nil, fmt.Errorf("zoom must be a number")
		}
		delta := value.Float()
		edits = append(edits, func(config *renderer.CameraConfig) {
			config.VFov = renderer.ClampVFov(config.VFov + delta)
		})
	}

	if len(edits) == 0 {
		return nil, fmt.Errorf("control message has no camera fields")
	}

	return func(camera *renderer.Camera) error {
		config := camera.Config()
		for _, edit := range edits {
			edit(&config)
		}
		return camera.Update(config)
	}, nil
}
