package logger

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance.
var Log zerolog.Logger

// Init configures global zerolog defaults for the given level. Accepts
// "panic","fatal","error","warn","info","debug","trace" case-insensitively;
// anything else falls back to info.
func Init(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(parseLevel(level))

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()
	Log = log.Logger
}

func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// Middleware returns a gin middleware logging one line per HTTP request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		Log.Info().
			Str("method", method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Int("size", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Str("remote_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
