package logger

// Logger is the printf style logger used across the engine. The package level
// functions write through a glog backed Logger.
type Logger interface {
	Infof(msg string, args ...any)
	Warnf(msg string, args ...any)
	Errorf(msg string, args ...any)
}
