package logging

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlindqvist/bigless/internal/config"
)

func TestNew_QuietDiscardsOutput(t *testing.T) {
	logger := New(false)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.Equal(t, io.Discard, logger.Out)
}

func TestNew_VerboseWritesToLogFile(t *testing.T) {
	tmp := t.TempDir()
	config.SetHomeDir(tmp)
	t.Cleanup(func() { config.SetHomeDir("") })

	logger := New(true)
	logger.Warn("something happened")

	data, err := os.ReadFile(filepath.Join(tmp, "bigless.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "something happened")
}
