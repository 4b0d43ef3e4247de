// Package logger is the log sink shared by all database backends.
// Entries go to the console and to any subscribed channels; the
// daemon's supervisor attaches through Subscribe.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ANSI color codes for console output
const (
	ColorReset        = "\033[0m"
	ColorCyan         = "\033[36m"
	ColorGreen        = "\033[32m"
	ColorBrightRed    = "\033[91m"
	ColorBrightYellow = "\033[93m"
	ColorBrightGray   = "\033[90m"
)

// ServiceNameWidth is the fixed column width for service names.
const ServiceNameWidth = 20

// Entry represents a single log entry.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Logger provides leveled logging with streaming support.
type Logger struct {
	serviceName string
	version     string

	mu             sync.RWMutex
	subscribers    []chan Entry
	colorEnabled   bool
	disableConsole bool
}

// New creates a new logger instance.
func New(serviceName, version string) *Logger {
	return &Logger{
		serviceName:  serviceName,
		version:      version,
		subscribers:  make([]chan Entry, 0),
		colorEnabled: isTerminal(),
	}
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func (l *Logger) colorForLevel(level string) string {
	if !l.colorEnabled {
		return ""
	}
	switch level {
	case "DEBUG":
		return ColorBrightGray
	case "INFO":
		return ColorGreen
	case "WARN":
		return ColorBrightYellow
	case "ERROR":
		return ColorBrightRed
	default:
		return ColorReset
	}
}

// Subscribe returns a channel that receives every log entry.
// Slow subscribers lose entries rather than block logging.
func (l *Logger) Subscribe() <-chan Entry {
	ch := make(chan Entry, 100)

	l.mu.Lock()
	l.subscribers = append(l.subscribers, ch)
	l.mu.Unlock()

	return ch
}

// DisableConsoleOutput disables console output when streaming to a supervisor.
func (l *Logger) DisableConsoleOutput() {
	l.mu.Lock()
	l.disableConsole = true
	l.mu.Unlock()
}

func (l *Logger) log(level, message string, fields map[string]string) {
	now := time.Now()
	entry := Entry{
		Time:    now,
		Level:   level,
		Message: message,
		Fields:  fields,
	}

	l.mu.RLock()
	toConsole := !l.disableConsole
	l.mu.RUnlock()

	if toConsole {
		timestamp := now.Format("2006-01-02 15:04:05.000")

		color := l.colorForLevel(level)
		resetColor := ""
		if l.colorEnabled {
			resetColor = ColorReset
		}

		fmt.Printf("%s[%s] [%-*s] [%s%-5s%s] %s%s\n",
			ColorCyan, timestamp, ServiceNameWidth, l.serviceName,
			color, level, resetColor, message, resetColor)
	}

	l.mu.RLock()
	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// Skip if channel is full
		}
	}
	l.mu.RUnlock()
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log("DEBUG", fmt.Sprintf(format, args...), nil)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log("INFO", fmt.Sprintf(format, args...), nil)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log("WARN", fmt.Sprintf(format, args...), nil)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log("ERROR", fmt.Sprintf(format, args...), nil)
}

// WithFields returns a context that logs with additional fields.
func (l *Logger) WithFields(fields map[string]string) *Context {
	return &Context{logger: l, fields: fields}
}

// Context provides field-based logging.
type Context struct {
	logger *Logger
	fields map[string]string
}

func (c *Context) Infof(format string, args ...interface{}) {
	c.logger.log("INFO", fmt.Sprintf(format, args...), c.fields)
}

func (c *Context) Errorf(format string, args ...interface{}) {
	c.logger.log("ERROR", fmt.Sprintf(format, args...), c.fields)
}
