// Package logging provides the structured logger shared across the CAM
// quality pipeline.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance used by packages that do not carry
// their own contextual logger.
var Logger *logrus.Logger

func init() {
	Logger = New("info", "stdout")
}

// New builds a configured logrus logger. level is one of
// debug/info/warn/error; output is "stdout" or a file path.
func New(level, output string) *logrus.Logger {
	logger := logrus.New()

	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if output == "" || output == "stdout" {
		logger.SetOutput(os.Stdout)
	} else {
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logger.SetOutput(file)
		} else {
			logger.SetOutput(os.Stdout)
			logger.Warnf("failed to open log file %s, using stdout", output)
		}
	}

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	return logger
}

// Station returns a logger with the stationId field pre-attached, the
// pattern every per-vehicle log line in the pipeline follows.
func Station(stationID uint32) *logrus.Entry {
	return Logger.WithField("stationId", stationID)
}
