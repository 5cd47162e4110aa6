package server

import (
	"fmt"

	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/logging"
)

// Bootstrap loads the configuration and installs the process-wide logger
// the way every entrypoint needs them
func Bootstrap() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logConfig := logging.DefaultConfig()
	logConfig.Level = cfg.LogLevel
	logConfig.File = cfg.LogFile
	logConfig.Requests = cfg.LogRequests
	if err := logConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid logging config: %w", err)
	}

	logging.Configure(logConfig)
	return cfg, logging.GetLogger(), nil
}
