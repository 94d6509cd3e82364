package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init("loud", "json", "stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInit_WritesJSONToFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init("info", "json", path))

	Info("training finished", zap.String("model", "CNN"))
	Debug("hidden below level")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"training finished"`)
	assert.Contains(t, out, `"model":"CNN"`)
	assert.NotContains(t, out, "hidden below level")
}
