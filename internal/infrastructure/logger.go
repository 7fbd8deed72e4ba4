package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"yieldcli/internal/config"
)

// Log outputs accepted by config.LoggingConfig.Output.
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

var (
	processMu     sync.Mutex
	processLogger *slog.Logger
	processFile   io.Closer
)

// InitializeLogger builds the process logger and installs it as the slog
// default. Only the first call configures anything; later calls return the
// same logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	processMu.Lock()
	defer processMu.Unlock()

	if processLogger != nil {
		return processLogger, nil
	}
	logger, closer, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	processLogger, processFile = logger, closer
	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the process logger, or slog.Default before
// InitializeLogger ran.
func GetLogger() *slog.Logger {
	processMu.Lock()
	defer processMu.Unlock()
	if processLogger == nil {
		return slog.Default()
	}
	return processLogger
}

// NewLogger builds a JSON logger writing to stdout, a log file or both. The
// closer releases the log file and is a no-op for console output.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(cfg.Output) {
	case OutputFile, OutputBoth:
		f, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
		if strings.EqualFold(cfg.Output, OutputBoth) {
			out = io.MultiWriter(os.Stdout, f)
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource:   true,
		Level:       parseLogLevel(cfg.Level),
		ReplaceAttr: shortSource,
	})
	return slog.New(contextHandler{Handler: handler}), closer, nil
}

// shortSource reduces the source attribute to file:line.
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
		return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
	}
	return a
}

// contextHandler adds the trace and run ids carried by the context to every
// record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if id := GetRunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel accepts slog level names plus "warning"; anything else is
// info.
func parseLogLevel(level string) slog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// CloseLogFile releases the process log file, if any.
func CloseLogFile() error {
	processMu.Lock()
	defer processMu.Unlock()
	if processFile == nil {
		return nil
	}
	err := processFile.Close()
	processFile = nil
	return err
}

// ResetLoggerForTesting forgets the process logger so the next
// InitializeLogger call configures a new one.
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	processMu.Lock()
	processLogger = nil
	processMu.Unlock()
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
