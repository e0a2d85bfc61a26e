package logger

import (
	"github.com/golang/glog"
)

// GlogLogger implements the Logger interface on top of glog with a configurable call depth, so the
// reported file:line points at the caller of the package level functions.
type GlogLogger struct {
	depth int
}

func (logger *GlogLogger) Infof(msg string, args ...any) {
	glog.InfoDepthf(logger.depth, msg, args...)
}

func (logger *GlogLogger) Warnf(msg string, args ...any) {
	glog.WarningDepthf(logger.depth, msg, args...)
}

func (logger *GlogLogger) Errorf(msg string, args ...any) {
	glog.ErrorDepthf(logger.depth, msg, args...)
}

func NewGlogLogger() Logger {
	return &GlogLogger{depth: 2}
}
