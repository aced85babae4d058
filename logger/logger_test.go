package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	SetLevel("warn")
	assert.Equal(t, logrus.WarnLevel, Logger.GetLevel())

	// unknown levels fall back to info
	SetLevel("chatty")
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}
