package logger

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log entries in memory so tests can assert on them
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	zerolog  zerolog.Logger
}

// LogMessage is one captured entry
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates an empty capturing logger
func NewTestLogger() *TestLogger {
	return &TestLogger{zerolog: zerolog.Nop()}
}

func (l *TestLogger) root() *testEntry { return &testEntry{sink: l} }

func (l *TestLogger) Debug(msg string) { l.root().Debug(msg) }
func (l *TestLogger) Info(msg string)  { l.root().Info(msg) }
func (l *TestLogger) Warn(msg string)  { l.root().Warn(msg) }
func (l *TestLogger) Error(msg string) { l.root().Error(msg) }
func (l *TestLogger) Fatal(msg string) { l.root().Fatal(msg) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.root().DebugWithFields(msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.root().InfoWithFields(msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.root().WarnWithFields(msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.root().ErrorWithFields(msg, fields)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.root().FatalWithFields(msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.root().WithField(key, value)
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.root().WithFields(fields)
}

func (l *TestLogger) WithError(err error) Logger             { return l.root().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }
func (l *TestLogger) GetZerolog() *zerolog.Logger            { return &l.zerolog }

func (l *TestLogger) record(level, msg string, fields map[string]interface{}, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: fields, Error: err})

	fmt.Fprintf(&l.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(&l.buffer, " fields=%v", fields)
	}
	if err != nil {
		fmt.Fprintf(&l.buffer, " error=%v", err)
	}
	l.buffer.WriteByte('\n')
}

// GetMessages returns a copy of every captured entry
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns entries logged at level (DEBUG, INFO, ...)
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage reports whether an entry with exactly this text was logged
func (l *TestLogger) HasMessage(text string) bool {
	_, ok := l.Find(text)
	return ok
}

// Find returns the first entry whose message contains substr
func (l *TestLogger) Find(substr string) (LogMessage, bool) {
	for _, msg := range l.GetMessages() {
		if strings.Contains(msg.Message, substr) {
			return msg, true
		}
	}
	return LogMessage{}, false
}

// HasError reports whether anything was logged at error level
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear drops every captured entry
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer.String()
}

// testEntry is a child of TestLogger carrying accumulated fields and an error
type testEntry struct {
	sink   *TestLogger
	fields map[string]interface{}
	err    error
}

func (e *testEntry) merge(extra map[string]interface{}) map[string]interface{} {
	if len(e.fields) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(e.fields)+len(extra))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (e *testEntry) Debug(msg string) { e.sink.record("DEBUG", msg, e.merge(nil), e.err) }
func (e *testEntry) Info(msg string)  { e.sink.record("INFO", msg, e.merge(nil), e.err) }
func (e *testEntry) Warn(msg string)  { e.sink.record("WARN", msg, e.merge(nil), e.err) }
func (e *testEntry) Error(msg string) { e.sink.record("ERROR", msg, e.merge(nil), e.err) }
func (e *testEntry) Fatal(msg string) { e.sink.record("FATAL", msg, e.merge(nil), e.err) }

func (e *testEntry) DebugWithFields(msg string, fields map[string]interface{}) {
	e.sink.record("DEBUG", msg, e.merge(fields), e.err)
}

func (e *testEntry) InfoWithFields(msg string, fields map[string]interface{}) {
	e.sink.record("INFO", msg, e.merge(fields), e.err)
}

func (e *testEntry) WarnWithFields(msg string, fields map[string]interface{}) {
	e.sink.record("WARN", msg, e.merge(fields), e.err)
}

func (e *testEntry) ErrorWithFields(msg string, fields map[string]interface{}) {
	e.sink.record("ERROR", msg, e.merge(fields), e.err)
}

func (e *testEntry) FatalWithFields(msg string, fields map[string]interface{}) {
	e.sink.record("FATAL", msg, e.merge(fields), e.err)
}

func (e *testEntry) WithField(key string, value interface{}) Logger {
	return e.WithFields(map[string]interface{}{key: value})
}

func (e *testEntry) WithFields(fields map[string]interface{}) Logger {
	return &testEntry{sink: e.sink, fields: e.merge(fields), err: e.err}
}

func (e *testEntry) WithError(err error) Logger {
	return &testEntry{sink: e.sink, fields: e.fields, err: err}
}

func (e *testEntry) WithContext(ctx context.Context) Logger { return e }
func (e *testEntry) GetZerolog() *zerolog.Logger            { return &e.sink.zerolog }
