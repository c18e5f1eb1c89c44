package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	mu          sync.Mutex
	globalSugar *zap.SugaredLogger
	globalBase  *zap.Logger
)

// Init initializes the global zap logger. env can be "production" or
// "development" (default). The stdlib log output is redirected to zap.
func Init(env string) (*zap.Logger, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalBase != nil {
		return globalBase, nil
	}

	var cfg zap.Config
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(base)
	_ = zap.RedirectStdLog(base)

	globalBase = base
	globalSugar = base.Sugar()
	return globalBase, nil
}

// Base returns the global *zap.Logger, initializing it from LOG_ENV on first use.
func Base() *zap.Logger {
	mu.Lock()
	ready := globalBase != nil
	mu.Unlock()
	if !ready {
		if _, err := Init(os.Getenv("LOG_ENV")); err != nil {
			fallback, _ := zap.NewDevelopment()
			mu.Lock()
			globalBase = fallback
			globalSugar = fallback.Sugar()
			mu.Unlock()
		}
	}
	mu.Lock()
	defer mu.Unlock()
	return globalBase
}

// L returns the global sugared logger.
func L() *zap.SugaredLogger {
	Base()
	mu.Lock()
	defer mu.Unlock()
	return globalSugar
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if globalBase != nil {
		_ = globalBase.Sync()
	}
}
