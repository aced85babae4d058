/*
Kernel-style logging for the caches.

A kernel reports cache trouble (missing drivers, write-protected devices,
I/O errors, OOM) through an unstructured printk. Here the same call sites go
through one process-wide logrus logger so callers can raise or lower
the level from configuration. Nothing in the caches depends on log output.
*/
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger used by every cache package
var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "15:04:05.000",
		FullTimestamp:   true,
	})
	return l
}

// SetLevel changes the log level. unknown levels fall back to info.
func SetLevel(level string) {
	lv, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lv = logrus.InfoLevel
	}
	Logger.SetLevel(lv)
}

// Debugf logs at debug level
func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

// Infof logs at info level
func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

// Warnf logs at warning level
// this is the closest equivalent of printk("WARNING: ...")
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

// Errorf logs at error level
func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
