package config

import (
	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger.
func SetupLogging(cfg Config) {
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
