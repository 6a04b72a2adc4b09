// Package logrus adapts a *logrus.Entry to mpsdk.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/mpsdk"
)

var _ mpsdk.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every entry with component=mpsdk.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "mpsdk")}
}

func (l Logger) Debug(msg string, f mpsdk.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f mpsdk.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f mpsdk.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f mpsdk.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f mpsdk.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
