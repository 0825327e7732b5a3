package quic

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// logrusSink adapts a *logrus.Logger to the io.Writer the logger type logs
// through, so deployments get leveled, field-structured log output without
// the core logging path needing to know logrus exists.
type logrusSink struct {
	log *logrus.Logger
}

// NewLogrusSink returns an io.Writer suitable for SetLogger that forwards
// every formatted line to log (or a default logrus.Logger, if nil) at
// info level, tagged with the "quic" component field.
func NewLogrusSink(log *logrus.Logger) io.Writer {
	if log == nil {
		log = logrus.New()
	}
	return &logrusSink{log: log}
}

func (s *logrusSink) Write(b []byte) (int, error) {
	s.log.WithField("component", "quic").Info(strings.TrimRight(string(b), "\n"))
	return len(b), nil
}
