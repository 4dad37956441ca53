// Package logger provides structured logging for the storefront client
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
	FATAL LogLevel = "FATAL"
)

var levelRank = map[LogLevel]int{
	DEBUG: 0,
	INFO:  1,
	WARN:  2,
	ERROR: 3,
	FATAL: 4,
}

// ParseLevel converts a config string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	lvl := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[lvl]; ok {
		return lvl
	}
	return INFO
}

// Fields represents structured logging fields
type Fields map[string]interface{}

// Logger provides structured logging capabilities
type Logger struct {
	mu      sync.RWMutex
	level   LogLevel
	service string
	out     *log.Logger
}

type logEntry struct {
	Timestamp string
	Level     string
	Service   string
	RequestID string
	UserID    string
	Message   string
	Fields    map[string]interface{}
	File      string
	Line      int
}

var globalLogger = NewLogger("storefront")

// NewLogger creates a new structured logger writing to stderr
func NewLogger(service string) *Logger {
	return &Logger{
		level:   INFO,
		service: service,
		out:     log.New(os.Stderr, "", 0),
	}
}

// SetLevel sets the minimum logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetOutput redirects log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = log.New(w, "", 0)
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return levelRank[level] >= levelRank[l.GetLevel()]
}

func getCallerInfo(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 2)
	if !ok {
		return "unknown", 0
	}
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	return file, line
}

func (l *Logger) log(ctx context.Context, level LogLevel, message string, fields Fields) {
	if !l.shouldLog(level) {
		return
	}

	file, line := getCallerInfo(1)

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Service:   l.service,
		Message:   message,
		Fields:    map[string]interface{}(fields),
		File:      file,
		Line:      line,
	}

	if ctx != nil {
		entry.RequestID = getRequestID(ctx)
		entry.UserID = getUserID(ctx)
	}

	l.mu.RLock()
	out := l.out
	l.mu.RUnlock()
	out.Print(formatLogEntry(entry))

	if level == FATAL {
		os.Exit(1)
	}
}

func formatLogEntry(entry logEntry) string {
	parts := []string{
		fmt.Sprintf("[%s]", entry.Timestamp),
		fmt.Sprintf("%-5s", entry.Level),
	}

	if entry.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", entry.Service))
	}
	if entry.RequestID != "" {
		parts = append(parts, fmt.Sprintf("req_id=%s", entry.RequestID))
	}
	if entry.UserID != "" {
		parts = append(parts, fmt.Sprintf("user_id=%s", entry.UserID))
	}

	parts = append(parts, fmt.Sprintf("file=%s:%d", entry.File, entry.Line))
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldPairs := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldPairs = append(fieldPairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("fields=(%s)", strings.Join(fieldPairs, ", ")))
	}

	return strings.Join(parts, " ")
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func getUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID adds user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestID returns the request id carried by ctx, if any
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return getRequestID(ctx)
}

// Logging methods for the default logger
func Debug(ctx context.Context, message string, fields ...Fields) {
	globalLogger.log(ctx, DEBUG, message, mergeFields(fields...))
}

func Info(ctx context.Context, message string, fields ...Fields) {
	globalLogger.log(ctx, INFO, message, mergeFields(fields...))
}

func Warn(ctx context.Context, message string, fields ...Fields) {
	globalLogger.log(ctx, WARN, message, mergeFields(fields...))
}

func Error(ctx context.Context, message string, fields ...Fields) {
	globalLogger.log(ctx, ERROR, message, mergeFields(fields...))
}

func Fatal(ctx context.Context, message string, fields ...Fields) {
	globalLogger.log(ctx, FATAL, message, mergeFields(fields...))
}

// Logging methods for Logger instance
func (l *Logger) Debug(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, DEBUG, message, mergeFields(fields...))
}

func (l *Logger) Info(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, INFO, message, mergeFields(fields...))
}

func (l *Logger) Warn(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, WARN, message, mergeFields(fields...))
}

func (l *Logger) Error(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, ERROR, message, mergeFields(fields...))
}

func mergeFields(fieldMaps ...Fields) Fields {
	result := make(Fields)
	for _, fields := range fieldMaps {
		for k, v := range fields {
			result[k] = v
		}
	}
	return result
}

// LogError logs an error with optional fields
func LogError(ctx context.Context, err error, message string, fields ...Fields) {
	if err == nil {
		return
	}
	errorFields := Fields{"error": err.Error()}
	allFields := append([]Fields{errorFields}, fields...)
	globalLogger.log(ctx, ERROR, message, mergeFields(allFields...))
}

// SetGlobalLevel sets the global logger level
func SetGlobalLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

// SetGlobalOutput redirects the global logger
func SetGlobalOutput(w io.Writer) {
	globalLogger.SetOutput(w)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	return globalLogger
}
