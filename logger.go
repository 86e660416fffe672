package trigger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger receives the few events a trigger reports on its own: misfire
// recovery ("recovered misfired trigger"), a calendar update that had to
// step past a stale fire time, and a calendar that excludes every
// candidate. Each event carries the trigger key under "trigger" followed
// by the instants involved. Stores and the metrics collector log through
// the same interface.
//
// The method set is a subset of github.com/go-logr/logr, so a logr sink
// satisfies it directly.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(err error, msg string, keysAndValues ...interface{})
}

// DefaultLogger writes errors to stdout. Trigger events are informational,
// so a trigger built without WithLogger is silent in normal operation.
var DefaultLogger = PrintfLogger(log.New(os.Stdout, "trigger: ", log.LstdFlags))

// DiscardLogger drops everything.
var DiscardLogger = PrintfLogger(log.New(io.Discard, "", 0))

// fireTimeLayout prints instants at the millisecond precision schedules
// are computed in.
const fireTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type printer interface {
	Printf(format string, v ...interface{})
}

// PrintfLogger reports errors only, through a Printf-style logger such as
// the standard library's *log.Logger.
func PrintfLogger(l printer) Logger {
	return printfLogger{out: l}
}

// VerbosePrintfLogger is PrintfLogger plus trigger events.
func VerbosePrintfLogger(l printer) Logger {
	return printfLogger{out: l, verbose: true}
}

type printfLogger struct {
	out     printer
	verbose bool
}

func (p printfLogger) Info(msg string, keysAndValues ...interface{}) {
	if p.verbose {
		p.out.Printf("%s", logLine(msg, keysAndValues))
	}
}

func (p printfLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	p.out.Printf("%s", logLine(msg, append([]interface{}{"error", err}, keysAndValues...)))
}

// logLine renders msg followed by space-separated key=value pairs. A
// dangling key is paired with "!MISSING".
func logLine(msg string, keysAndValues []interface{}) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		var v interface{} = "!MISSING"
		if i+1 < len(keysAndValues) {
			v = keysAndValues[i+1]
		}
		if at, ok := v.(time.Time); ok {
			v = at.Format(fireTimeLayout)
		}
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], v)
	}
	return sb.String()
}

// SlogLogger sends trigger events to a *slog.Logger, info events at
// slog.LevelInfo.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps l, or slog.Default() when l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

func (s *SlogLogger) Info(msg string, keysAndValues ...interface{}) {
	s.logger.Info(msg, keysAndValues...)
}

func (s *SlogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	s.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// ZerologLogger sends trigger events to zerolog. Key/value pairs become
// event fields; instants keep zerolog's configured time format.
type ZerologLogger struct {
	logger zerolog.Logger
}

func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: l}
}

func (z *ZerologLogger) Info(msg string, keysAndValues ...interface{}) {
	z.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (z *ZerologLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	z.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
