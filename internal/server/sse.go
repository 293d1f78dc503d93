package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Stream event names.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// eventStream writes server-sent events, one flush per event. Events carry
// an increasing id so clients can tell where a dropped stream stopped.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
	buf     bytes.Buffer
}

func openEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &eventStream{w: w, flusher: flusher}, nil
}

func (s *eventStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.seq++
	s.buf.Reset()
	s.buf.WriteString("id: ")
	s.buf.WriteString(strconv.Itoa(s.seq))
	s.buf.WriteString("\nevent: ")
	s.buf.WriteString(event)
	s.buf.WriteString("\ndata: ")
	s.buf.Write(data)
	s.buf.WriteString("\n\n")
	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// fail sends the terminal error event. The payload mirrors the JSON error
// body plus the status the plain endpoint would have answered with.
func (s *eventStream) fail(status int, message string) error {
	return s.send(EventError, struct {
		Status int    `json:"status"`
		Error  string `json:"error"`
	}{status, message})
}
