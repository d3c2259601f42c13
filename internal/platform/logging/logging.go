package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Init configures the process-wide zap logger and installs it as the
// global, so packages log through zap.L(). Returns the flush function
// for main to defer.
func Init(env string) (func(), error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		logger, err = cfg.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}
