package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a zerolog logger that takes fields as maps.
type Logger struct {
	zl zerolog.Logger
}

var (
	mu         sync.RWMutex
	defaultLog *Logger
)

// Init configures the process-wide logger. Loggers returned by Get after
// Init inherit its level and format.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	l := newLogger(cfg, "")
	mu.Lock()
	defaultLog = l
	mu.Unlock()
	log.Logger = l.zl
}

// Default returns the process-wide logger, an info-level console logger on
// stderr until Init is called.
func Default() *Logger {
	mu.RLock()
	l := defaultLog
	mu.RUnlock()
	if l != nil {
		return l
	}
	cfg := &Config{}
	cfg.ApplyDefaults()
	return newLogger(cfg, "")
}

// Get returns the process-wide logger tagged with a component name.
func Get(component string) *Logger {
	return Default().WithComponent(component)
}

// newLogger builds a logger writing to cfg.Output.
func newLogger(cfg *Config, service string) *Logger {
	var w io.Writer = os.Stderr
	if strings.EqualFold(cfg.Output, "stdout") {
		w = os.Stdout
	}
	return NewWithWriter(cfg, service, w)
}

// NewWithWriter builds a logger writing to w. An unknown level means info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if isConsole(cfg.Format) {
		w = consoleWriter(w, service, cfg.NoColor)
	}
	ctx := zerolog.New(w).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger()}
}

type invocationKey struct{}

// ContextWithInvocationID tags ctx with the id of a filter invocation.
func ContextWithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// WithContext adds the invocation id carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id, _ := ctx.Value(invocationKey{}).(string)
	if id == "" {
		return l
	}
	return &Logger{zl: l.zl.With().Str(FieldInvocationID, id).Logger()}
}

// WithComponent tags every entry with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields ...map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for _, m := range fields {
		ctx = ctx.Fields(m)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { write(l.zl.Error(), msg, fields) }

func write(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, m := range fields {
		ev = ev.Fields(m)
	}
	ev.Msg(msg)
}

func isConsole(format string) bool {
	f := strings.ToLower(format)
	return f == "console" || f == "pretty"
}

var levelColors = map[string]int{"TRC": 90, "DBG": 36, "INF": 32, "WRN": 33, "ERR": 31, "FTL": 35, "PNC": 35}

// consoleWriter prints "[SVC][LVL] message key:value", the service tag
// being the first three letters of service.
func consoleWriter(w io.Writer, service string, noColor bool) zerolog.ConsoleWriter {
	tag := ""
	if len(service) >= 3 {
		tag = "[" + strings.ToUpper(service[:3]) + "]"
	}
	paint := func(code int, s string) string {
		if noColor {
			return s
		}
		return fmt.Sprintf("\033[%dm%s\033[0m", code, s)
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprint(i))
			if len(lvl) > 3 {
				lvl = map[string]string{"TRACE": "TRC", "DEBUG": "DBG", "INFO": "INF", "WARN": "WRN", "ERROR": "ERR", "FATAL": "FTL", "PANIC": "PNC"}[lvl]
			}
			out := paint(levelColors[lvl], "["+lvl+"]")
			if tag != "" {
				out = paint(34, tag) + out
			}
			return out
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
	}
}
