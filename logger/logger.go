package logger

var logger Logger = NewGlogLogger()

func Infof(msg string, args ...any) {
	logger.Infof(msg, args...)
}

func Warnf(msg string, args ...any) {
	logger.Warnf(msg, args...)
}

func Errorf(msg string, args ...any) {
	logger.Errorf(msg, args...)
}
