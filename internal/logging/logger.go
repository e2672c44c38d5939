// Package logging provides a small leveled logger in the style used
// throughout dedupstore's lineage: a nil-safe receiver so that a logger
// can be threaded optionally through library code, dotted sublogger
// names so a run's output can be traced to the component that produced
// it, and colorized warning/error output when standard error is a
// terminal.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

func init() {
	log.SetOutput(os.Stdout)
	color.NoColor = !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// Logger is the main logger type. A nil *Logger is valid and silently
// discards everything, so callers can pass a nil logger through library
// code without guarding every call site. It is safe for concurrent use.
type Logger struct {
	prefix string
	level  Level
}

// RootLogger is the root logger from which all other loggers derive. Its
// level defaults to LevelInfo; callers typically reassign it once at
// startup based on CLI configuration.
var RootLogger = &Logger{level: LevelInfo}

// New creates a root logger at the specified level.
func New(level Level) *Logger {
	return &Logger{level: level}
}

// Sublogger creates a new sublogger with the specified name, inheriting
// the parent's level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, level: l.level}
}

func (l *Logger) enabled(level Level) bool {
	return l != nil && level != LevelDisabled && level <= l.level
}

func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Infof logs basic execution information, formatted like fmt.Sprintf.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debugf logs advanced execution information, formatted like fmt.Sprintf.
// It is a no-op unless the logger's level is at least LevelDebug.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a non-fatal warning in yellow.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(3, color.YellowString("warning: "+format, v...))
	}
}

// Errorf logs a fatal-adjacent error in red. It does not terminate the
// process; callers decide whether the condition is actually fatal.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l.enabled(LevelError) {
		l.output(3, color.RedString("error: "+format, v...))
	}
}
