// internal/errors/handler.go - Console reporting driven by the configured debug level
package errors

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/valpere/ratdriver/internal/utils"
)

// DebugLevel selects how much a Handler prints when an operation fails.
type DebugLevel int

const (
	// LevelNotSpecified behaves like LevelMessage.
	LevelNotSpecified DebugLevel = iota
	// LevelNone prints nothing.
	LevelNone
	// LevelHuman prints the friendly explanation only.
	LevelHuman
	// LevelMessage prints the error text.
	LevelMessage
	// LevelStackTrace prints the error text followed by the goroutine stack.
	LevelStackTrace
)

var debugLevelNames = map[DebugLevel]string{
	LevelNotSpecified: "not_specified",
	LevelNone:         "none",
	LevelHuman:        "human",
	LevelMessage:      "message",
	LevelStackTrace:   "stacktrace",
}

func (l DebugLevel) String() string {
	if name, ok := debugLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("DebugLevel(%d)", int(l))
}

// ParseDebugLevel converts a configuration value into a DebugLevel.
func ParseDebugLevel(s string) (DebugLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "", "not_specified", "notspecified":
		return LevelNotSpecified, nil
	case "none", "off", "silent":
		return LevelNone, nil
	case "human":
		return LevelHuman, nil
	case "message":
		return LevelMessage, nil
	case "stacktrace", "stack_trace":
		return LevelStackTrace, nil
	}
	return LevelNotSpecified, fmt.Errorf("unknown debug level %q", s)
}

// MarshalText satisfies encoding.TextMarshaler.
func (l DebugLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler.
func (l *DebugLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseDebugLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Handler prints failures to the console and logs them. It always hands the
// error back so callers can return it.
type Handler struct {
	level  DebugLevel
	out    io.Writer
	logger utils.Logger
	human  *color.Color
	mu     sync.Mutex
}

// NewHandler creates a handler writing to the colorable stdout.
func NewHandler(level DebugLevel, logger utils.Logger) *Handler {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Handler{
		level:  level,
		out:    color.Output,
		logger: logger,
		human:  color.New(color.FgYellow),
	}
}

// WithOutput redirects console output.
func (h *Handler) WithOutput(w io.Writer) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out = w
	return h
}

// Level returns the configured debug level.
func (h *Handler) Level() DebugLevel {
	return h.level
}

// Human prints an informational line only at LevelHuman.
func (h *Handler) Human(format string, args ...interface{}) {
	if h.level != LevelHuman {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.human.Fprintln(h.out, fmt.Sprintf(format, args...))
}

// Handle reports err according to the debug level and returns it unchanged.
// human is the explanation shown at LevelHuman.
func (h *Handler) Handle(human string, err error) error {
	if err == nil {
		return nil
	}

	h.logger.WithField("debug_level", h.level.String()).Debugf("%s: %v", human, err)

	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.level {
	case LevelNone:
	case LevelHuman:
		h.human.Fprintln(h.out, human)
	case LevelStackTrace:
		fmt.Fprintln(h.out, err.Error())
		h.out.Write(debug.Stack())
	default:
		fmt.Fprintln(h.out, err.Error())
	}
	return err
}
