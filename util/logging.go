// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppName is reported on every log line
const AppName = "bf-mosaiks"

// Severity is the level attached to an audit log entry
type Severity int

// Audit severities
const (
	DEBUG Severity = iota
	INFO
	WARNING
	ERROR
)

// LogContext identifies the component and session a log line belongs to
type LogContext interface {
	AppName() string
	SessionID() string
}

// BasicLogContext is a LogContext with a lazily generated session ID. It is
// safe for concurrent use and must not be copied after first use.
type BasicLogContext struct {
	once      sync.Once
	sessionID string
}

// AppName returns the application name
func (c *BasicLogContext) AppName() string {
	return AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *BasicLogContext) SessionID() string {
	c.once.Do(func() {
		c.sessionID, _ = PsuUUID()
	})
	return c.sessionID
}

// LogAuditInput describes who did what to whom
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity Severity
}

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

func baseLogger() *zap.Logger {
	loggerOnce.Do(func() {
		level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if raw, ok := os.LookupEnv(LOG_LEVEL); ok {
			if err := level.UnmarshalText([]byte(raw)); err != nil {
				fmt.Fprintf(os.Stderr, "invalid %s %q, using info\n", LOG_LEVEL, raw)
			}
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		built, err := cfg.Build()
		if err != nil {
			built = zap.NewNop()
		}
		logger = built
	})
	return logger
}

// SetLogger replaces the process logger. Tests use zap's observer core here.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	logger = l
}

func contextLogger(ctx LogContext) *zap.Logger {
	l := baseLogger()
	if ctx == nil {
		return l
	}
	return l.With(zap.String("app", ctx.AppName()), zap.String("session", ctx.SessionID()))
}

// LogInfo posts an informational message
func LogInfo(ctx LogContext, message string) {
	contextLogger(ctx).Info(message)
}

// LogAlert posts a message that needs operator attention but is not an error
func LogAlert(ctx LogContext, message string) {
	contextLogger(ctx).Warn(message)
}

// LogSimpleErr logs message and err together and returns an error combining both
func LogSimpleErr(ctx LogContext, message string, err error) error {
	if err == nil {
		contextLogger(ctx).Error(message)
		return fmt.Errorf("%s", message)
	}
	contextLogger(ctx).Error(message, zap.Error(err))
	return fmt.Errorf("%s %w", message, err)
}

// LogAudit records an interaction with an external system
func LogAudit(ctx LogContext, input LogAuditInput) {
	fields := []zap.Field{
		zap.String("actor", input.Actor),
		zap.String("action", input.Action),
		zap.String("actee", input.Actee),
		zap.Bool("audit", true),
	}
	l := contextLogger(ctx)
	switch input.Severity {
	case DEBUG:
		l.Debug(input.Message, fields...)
	case WARNING:
		l.Warn(input.Message, fields...)
	case ERROR:
		l.Error(input.Message, fields...)
	default:
		l.Info(input.Message, fields...)
	}
}

// PsuUUID returns a random UUID string
func PsuUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
