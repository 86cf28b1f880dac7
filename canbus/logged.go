package canbus

import (
	"github.com/sirupsen/logrus"
)

// LogOption is a bitmask selecting which bus operations to log.
type LogOption uint8

const (
	LogNone LogOption = 0
	LogRead LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedBus wraps the given Bus and logs selected operations at debug
// level through the provided logger. If filter is non-nil, only frames it
// matches are logged; errors are logged regardless.
func NewLoggedBus(inner Bus, logger logrus.FieldLogger, opts LogOption, filter FrameFilter) Bus {
	return &loggedBus{inner: inner, logger: logger, opts: opts, filter: filter}
}

type loggedBus struct {
	inner  Bus
	logger logrus.FieldLogger
	opts   LogOption
	filter FrameFilter
}

func (l *loggedBus) fields(f Frame) logrus.Fields {
	return logrus.Fields{
		"id":    f.ID,
		"len":   int(f.Len),
		"frame": f.String(),
	}
}

func (l *loggedBus) Send(frame Frame) error {
	if l.opts&LogWrite != 0 && (l.filter == nil || l.filter(frame)) {
		l.logger.WithFields(l.fields(frame)).Debug("canbus send")
	}
	err := l.inner.Send(frame)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.WithField("id", frame.ID).WithError(err).Error("canbus send failed")
	}
	return err
}

func (l *loggedBus) Receive() (Frame, error) {
	f, err := l.inner.Receive()
	if l.opts&LogRead == 0 {
		return f, err
	}
	if err != nil {
		l.logger.WithError(err).Error("canbus receive failed")
		return f, err
	}
	if l.filter == nil || l.filter(f) {
		l.logger.WithFields(l.fields(f)).Debug("canbus receive")
	}
	return f, err
}

func (l *loggedBus) Close() error {
	return l.inner.Close()
}
