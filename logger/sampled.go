package logger

import (
	"github.com/prebid/prebid-response-engine/util/randomutil"
)

// SampledLogger forwards only a fraction of the messages to the wrapped logger. It is used on hot
// paths where every auction could produce the same message.
type SampledLogger struct {
	delegate Logger
	rate     float64
	random   randomutil.RandomGenerator
}

// NewSampledLogger returns a logger emitting roughly rate*100 percent of the calls. A rate of 1 or
// more logs everything, 0 or less logs nothing.
func NewSampledLogger(delegate Logger, rate float64, random randomutil.RandomGenerator) *SampledLogger {
	if delegate == nil {
		delegate = logger
	}
	if random == nil {
		random = randomutil.RandomNumberGenerator{}
	}
	return &SampledLogger{delegate: delegate, rate: rate, random: random}
}

func (s *SampledLogger) Infof(msg string, args ...any) {
	if s.sample() {
		s.delegate.Infof(msg, args...)
	}
}

func (s *SampledLogger) Warnf(msg string, args ...any) {
	if s.sample() {
		s.delegate.Warnf(msg, args...)
	}
}

func (s *SampledLogger) Errorf(msg string, args ...any) {
	if s.sample() {
		s.delegate.Errorf(msg, args...)
	}
}

func (s *SampledLogger) sample() bool {
	if s.rate >= 1 {
		return true
	}
	if s.rate <= 0 {
		return false
	}
	return s.random.GenerateFloat64() < s.rate
}
