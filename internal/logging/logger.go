// Package logging provides config-driven categorized logging for ctxgraph.
// Every category is a named child of a single zap logger. Categories can be
// switched off individually and all records carry the run id of the process.
// Until Initialize is called every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryScan     Category = "scan"     // Filesystem walking and document decoding
	CategoryGraph    Category = "graph"    // Index construction, collisions
	CategoryResolve  Category = "resolve"  // Reference and dependency resolution
	CategoryAssemble Category = "assemble" // Context bundle assembly
	CategoryStore    Category = "store"    // Snapshot persistence
	CategoryExternal Category = "external" // External reference loading (file, s3, gcs)
	CategoryWatch    Category = "watch"    // Filesystem watcher
	CategoryRender   Category = "render"   // Output formatting
)

// AllCategories lists every category in declaration order.
var AllCategories = []Category{
	CategoryBoot, CategoryScan, CategoryGraph, CategoryResolve, CategoryAssemble,
	CategoryStore, CategoryExternal, CategoryWatch, CategoryRender,
}

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level      string          // debug, info, warn, error
	Format     string          // console or json
	File       string          // empty means stderr
	Categories map[string]bool // missing categories are enabled
}

// Logger is a printf-style logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu       sync.RWMutex
	base     = zap.NewNop()
	loggers  = make(map[Category]*Logger)
	disabled = make(map[Category]bool)
	runID    string
	closer   func() error
)

// NewRunID returns a fresh identifier for one process run.
func NewRunID() string {
	return uuid.NewString()
}

// Initialize builds the zap core from cfg and resets every category logger.
func Initialize(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	var fileCloser func() error
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		fileCloser = f.Close
	}

	off := make(map[Category]bool)
	for name, enabled := range cfg.Categories {
		if !enabled {
			off[Category(name)] = true
		}
	}

	replace(zap.New(zapcore.NewCore(encoder, zapcore.Lock(sink), level)), off, fileCloser)
	return nil
}

// InitializeWithLogger installs an already-built zap logger. Used by tests
// and by embedders that own their zap configuration.
func InitializeWithLogger(l *zap.Logger, off ...Category) {
	m := make(map[Category]bool, len(off))
	for _, c := range off {
		m[c] = true
	}
	replace(l, m, nil)
}

func replace(l *zap.Logger, off map[Category]bool, c func() error) {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = base.Sync()
		_ = closer()
	}
	base = l
	disabled = off
	closer = c
	loggers = make(map[Category]*Logger)
}

// SetRunID tags every subsequent record with id.
func SetRunID(id string) {
	mu.Lock()
	defer mu.Unlock()
	runID = id
	loggers = make(map[Category]*Logger)
}

// RunID returns the id set by SetRunID.
func RunID() string {
	mu.RLock()
	defer mu.RUnlock()
	return runID
}

// IsCategoryEnabled reports whether the category writes records.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return !disabled[category]
}

// Get returns the logger for a category.
func Get(category Category) *Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	z := base.Named(string(category))
	if runID != "" {
		z = z.With(zap.String("run", runID))
	}
	if disabled[category] {
		z = zap.NewNop()
	}
	l = &Logger{category: category, sugar: z.Sugar()}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger that adds the given key/value pairs to every record.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered records.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// CloseAll flushes and releases the log file, then reverts to a no-op logger.
func CloseAll() {
	replace(zap.NewNop(), nil, nil)
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// Scan logs to the scan category
func Scan(format string, args ...interface{}) {
	Get(CategoryScan).Info(format, args...)
}

// ScanDebug logs debug to the scan category
func ScanDebug(format string, args ...interface{}) {
	Get(CategoryScan).Debug(format, args...)
}

// ScanWarn logs warning to the scan category
func ScanWarn(format string, args ...interface{}) {
	Get(CategoryScan).Warn(format, args...)
}

// Graph logs to the graph category
func Graph(format string, args ...interface{}) {
	Get(CategoryGraph).Info(format, args...)
}

// GraphWarn logs warning to the graph category
func GraphWarn(format string, args ...interface{}) {
	Get(CategoryGraph).Warn(format, args...)
}

// ResolveDebug logs debug to the resolve category
func ResolveDebug(format string, args ...interface{}) {
	Get(CategoryResolve).Debug(format, args...)
}

// AssembleDebug logs debug to the assemble category
func AssembleDebug(format string, args ...interface{}) {
	Get(CategoryAssemble).Debug(format, args...)
}

// AssembleWarn logs warning to the assemble category
func AssembleWarn(format string, args ...interface{}) {
	Get(CategoryAssemble).Warn(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// ExternalDebug logs debug to the external category
func ExternalDebug(format string, args ...interface{}) {
	Get(CategoryExternal).Debug(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

// WatchError logs error to the watch category
func WatchError(format string, args ...interface{}) {
	Get(CategoryWatch).Error(format, args...)
}

// =============================================================================
// TIMING
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
