// Package logger builds the service-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New constructs a zerolog.Logger for env at the given level. Development
// output goes through the console writer; everything else is JSON.
func New(env, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

func NewWithWriter(w io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.EqualFold(env, "development") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// Logger aliases zerolog.Logger so callers can depend on the logging
// contract without importing the third-party module directly.
type Logger = zerolog.Logger

// Nop returns a logger that discards everything; handy for tests.
func Nop() Logger {
	return zerolog.Nop()
}

// Asynq adapts a zerolog.Logger to asynq's Logger interface.
type Asynq struct {
	log zerolog.Logger
}

func NewAsynq(log zerolog.Logger) *Asynq {
	return &Asynq{log: log.With().Str("component", "asynq").Logger()}
}

func (a *Asynq) Debug(args ...interface{}) { a.log.Debug().Msg(fmt.Sprint(args...)) }
func (a *Asynq) Info(args ...interface{})  { a.log.Info().Msg(fmt.Sprint(args...)) }
func (a *Asynq) Warn(args ...interface{})  { a.log.Warn().Msg(fmt.Sprint(args...)) }
func (a *Asynq) Error(args ...interface{}) { a.log.Error().Msg(fmt.Sprint(args...)) }

// Fatal logs and exits, as asynq expects.
func (a *Asynq) Fatal(args ...interface{}) { a.log.Fatal().Msg(fmt.Sprint(args...)) }
