package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/adapters/process"
	"github.com/aretw0/relay/pkg/adapters/serial"
	"github.com/aretw0/relay/pkg/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "command.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full command file", func(t *testing.T) {
		path := writeFile(t, `
command:
  argv: ["echo", "hello"]
  transport: process
  mode: plain
  timeout: 2s
  params:
    dir: /tmp
`)
		cmd, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"echo", "hello"}, cmd.Argv)
		assert.Equal(t, domain.TransportProcess, cmd.Transport)
		assert.Equal(t, 2*time.Second, cmd.Timeout)
		cfg, ok := cmd.Params.(process.Config)
		require.True(t, ok)
		assert.Equal(t, "/tmp", cfg.Dir)
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeFile(t, `
command:
  argv: ["uptime"]
  transport: process
`)
		cmd, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, domain.ModePlain, cmd.Mode)
		assert.Equal(t, domain.DefaultProcessTimeout, cmd.Timeout)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "command: [not a mapping")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestBuild(t *testing.T) {
	t.Run("bad timeout string", func(t *testing.T) {
		_, err := Build(CommandSpec{Argv: []string{"x"}, Transport: "process", Timeout: "soon"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "timeout", verr.Field)
	})

	t.Run("validation failure surfaces", func(t *testing.T) {
		_, err := Build(CommandSpec{Transport: "process"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "argv", verr.Field)
	})
}

func TestDecodeParams(t *testing.T) {
	t.Run("unknown key rejected", func(t *testing.T) {
		_, err := DecodeParams(domain.TransportProcess, map[string]any{"dirr": "/tmp"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "params", verr.Field)
	})

	t.Run("serial config", func(t *testing.T) {
		params, err := DecodeParams(domain.TransportSerial, map[string]any{
			"device": "/dev/ttyUSB0",
			"baud":   115200,
			"poll":   "25ms",
		})
		require.NoError(t, err)
		cfg, ok := params.(serial.Config)
		require.True(t, ok)
		assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
		assert.Equal(t, 115200, cfg.Baud)
		assert.Equal(t, 25*time.Millisecond, cfg.Poll)
	})

	t.Run("session requires credentials", func(t *testing.T) {
		_, err := DecodeParams(domain.TransportSession, map[string]any{"host": "10.0.0.5"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "params", verr.Field)
	})

	t.Run("unknown transport", func(t *testing.T) {
		_, err := DecodeParams(domain.Transport("carrier-pigeon"), map[string]any{})
		assert.Error(t, err)
	})
}
