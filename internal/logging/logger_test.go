package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warn"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, GetLevel("verbose"))
}

func TestSetup_File(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	name := filepath.Join(t.TempDir(), "server")
	closer := Setup(LoggerSetupParams{LogFileName: name, LogLevel: "info", LogFormatJSON: true})
	logrus.WithField("student", "abc").Info("completion recorded")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(name + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"completion recorded"`)
	assert.Contains(t, string(content), `"student":"abc"`)
}
