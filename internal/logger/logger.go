// Package logger configures the process-wide zerolog logger.
//
// LOG_LEVEL selects the minimum level (default "info"); LOG_FORMAT switches
// between human-readable console output and plain JSON (default "console").
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

func InitWithWriter(w io.Writer) {
	level, err := zerolog.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = w
	if !strings.EqualFold(envOr("LOG_FORMAT", "console"), "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(out).With().Timestamp().Logger().Level(level)
	zlog.Logger = Logger
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
