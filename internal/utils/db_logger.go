package utils

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// QuietGormLogger wraps a gorm logger and drops successful, fast queries matching
// one of the ignored patterns. The reminder worker claims due rows every minute and
// would otherwise flood the log.
type QuietGormLogger struct {
	logger.Interface
	ignoredQueryPatterns []string
	slowThreshold        time.Duration
}

// NewQuietGormLogger creates a logger that hides the given query patterns
func NewQuietGormLogger(l logger.Interface, slowThreshold time.Duration, ignoredPatterns ...string) *QuietGormLogger {
	return &QuietGormLogger{
		Interface:            l,
		ignoredQueryPatterns: ignoredPatterns,
		slowThreshold:        slowThreshold,
	}
}

// LogMode implements logger.Interface
func (l *QuietGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &QuietGormLogger{
		Interface:            l.Interface.LogMode(level),
		ignoredQueryPatterns: l.ignoredQueryPatterns,
		slowThreshold:        l.slowThreshold,
	}
}

// Trace implements logger.Interface
func (l *QuietGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, rows := fc()

	if l.ignored(sql, time.Since(begin), err) {
		return
	}

	callerInfo := findCaller()
	l.Interface.Trace(ctx, begin, func() (string, int64) {
		if callerInfo != "" {
			return fmt.Sprintf("[Caller: %s] %s", callerInfo, sql), rows
		}
		return sql, rows
	}, err)
}

// ignored errors and slow queries are always logged
func (l *QuietGormLogger) ignored(sql string, elapsed time.Duration, err error) bool {
	if err != nil {
		return false
	}
	if l.slowThreshold > 0 && elapsed >= l.slowThreshold {
		return false
	}
	for _, pattern := range l.ignoredQueryPatterns {
		if strings.Contains(sql, pattern) {
			return true
		}
	}
	return false
}

// findCaller returns the first frame outside gorm and the database package
func findCaller() string {
	for i := 2; i < 15; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		if strings.Contains(file, "gorm.io") ||
			strings.Contains(file, "internal/database") ||
			strings.Contains(file, "internal/utils/db_logger.go") {
			continue
		}

		if fn := runtime.FuncForPC(pc); fn != nil {
			name := fn.Name()
			if idx := strings.LastIndexByte(name, '.'); idx != -1 {
				name = name[idx+1:]
			}
			return fmt.Sprintf("%s() at %s:%d", name, file, line)
		}
		return fmt.Sprintf("%s:%d", file, line)
	}

	return ""
}
