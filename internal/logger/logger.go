// Package logger owns the process-wide logrus logger.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stdout)
	return l
}

// Configure sets level ("debug", "info", ...) and format ("json" or "text").
func Configure(level, format string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	if strings.EqualFold(format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
}

func Get() *logrus.Logger {
	return log
}

// For returns an entry tagged with a component name.
func For(component string) *logrus.Entry {
	return log.WithField("component", component)
}

// LogError writes an error with the function and context it happened in.
func LogError(entry *logrus.Entry, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"func":    funcName,
		"context": context,
	}
	if data != nil {
		fields["data"] = data
	}
	entry.WithFields(fields).Error(err.Error())
}
