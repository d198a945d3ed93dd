// Package logging writes one structured JSON line per connection
// lifecycle event worth keeping, the same shape bolt/middleware/logger.go
// uses for its request log ({"time":...,"method":...,"path":...,
// "status":...}), adapted here from an HTTP-middleware hook to direct
// calls from the connection state machine and the server wiring.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

// Event is one JSON log line. Fields are omitted when not applicable to
// the event being logged.
type Event struct {
	Time       string  `json:"time"`
	Kind       string  `json:"kind"`
	Method     string  `json:"method,omitempty"`
	Path       string  `json:"path,omitempty"`
	Status     int     `json:"status,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	RemoteIP   string  `json:"remote_ip,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Logger wraps a *log.Logger and serializes Events as single JSON lines.
type Logger struct {
	out *log.Logger
}

// New creates a Logger writing to w. A nil w defaults to os.Stdout.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{out: log.New(w, "", 0)}
}

// Log writes e with its Time field stamped to now.
func (l *Logger) Log(e Event) {
	e.Time = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(e)
	if err != nil {
		l.out.Printf(`{"kind":"log_error","error":%q}`, err.Error())
		return
	}
	l.out.Println(string(b))
}

// Listening logs the server startup event.
func (l *Logger) Listening(addr string) {
	l.Log(Event{Kind: "listen", Path: addr})
}

// RejectedByLimiter logs a connection turned away by the rate limiter.
func (l *Logger) RejectedByLimiter(remoteIP string) {
	l.Log(Event{Kind: "rate_limited", RemoteIP: remoteIP})
}

// ParseError logs a malformed request that failed to parse.
func (l *Logger) ParseError(remoteIP string, err error) {
	l.Log(Event{Kind: "parse_error", RemoteIP: remoteIP, Error: err.Error()})
}

// Request logs one completed request/response cycle.
func (l *Logger) Request(method, path string, status int, dur time.Duration, remoteIP string) {
	l.Log(Event{
		Kind:       "request",
		Method:     method,
		Path:       path,
		Status:     status,
		DurationMS: float64(dur.Microseconds()) / 1000.0,
		RemoteIP:   remoteIP,
	})
}

// ServerError logs a 5xx-class failure worth surfacing.
func (l *Logger) ServerError(path string, err error) {
	l.Log(Event{Kind: "server_error", Path: path, Error: err.Error()})
}

// Shutdown logs the shutdown event.
func (l *Logger) Shutdown() {
	l.Log(Event{Kind: "shutdown"})
}
