// Package logging holds process wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"

	chlog "github.com/charmbracelet/log"
)

// LevelEnv is environment variable with default log level.
const LevelEnv = "BAG_TREEMAP_LOG_LEVEL"

// Logger writes to stderr, stdout is left for rendered output.
var Logger *chlog.Logger

const (
	debugLevel = "debug"
	infoLevel  = "info"
	warnLevel  = "warn"
	errorLevel = "error"
)

// InitLogger initializes the global logger with level from BAG_TREEMAP_LOG_LEVEL.
// Valid levels: debug, info, warn, error.
func InitLogger() {
	if Logger != nil {
		return
	}
	Logger = newLogger(os.Stderr)
	if !SetLogLevel(os.Getenv(LevelEnv)) {
		Logger.SetLevel(chlog.InfoLevel)
	}
}

func newLogger(w io.Writer) *chlog.Logger {
	l := chlog.New(w)
	l.SetTimeFormat("2006-01-02 15:04:05.000")
	l.SetReportTimestamp(true)
	l.SetPrefix("bag-treemap")
	return l
}

// SetLogLevel changes level at runtime. Unknown levels are ignored and reported as false.
func SetLogLevel(level string) bool {
	if Logger == nil {
		InitLogger()
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case debugLevel:
		Logger.SetLevel(chlog.DebugLevel)
	case infoLevel:
		Logger.SetLevel(chlog.InfoLevel)
	case warnLevel:
		Logger.SetLevel(chlog.WarnLevel)
	case errorLevel:
		Logger.SetLevel(chlog.ErrorLevel)
	default:
		return false
	}
	return true
}
