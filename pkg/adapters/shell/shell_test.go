package shell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	base := Config{Host: "bench-1", User: "op", Password: "secret"}

	t.Run("accepts password auth", func(t *testing.T) {
		assert.NoError(t, base.Validate())
	})

	t.Run("accepts key auth without password", func(t *testing.T) {
		c := Config{Host: "bench-1", User: "op", KeyPEM: []byte("---")}
		assert.NoError(t, c.Validate())
	})

	t.Run("requires host", func(t *testing.T) {
		c := base
		c.Host = ""
		assert.Error(t, c.Validate())
	})

	t.Run("requires user", func(t *testing.T) {
		c := base
		c.User = ""
		assert.Error(t, c.Validate())
	})

	t.Run("requires some credential", func(t *testing.T) {
		c := base
		c.Password = ""
		assert.Error(t, c.Validate())
	})
}

func TestNew_Defaults(t *testing.T) {
	d, err := New(Config{Host: "bench-1", User: "op", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 22, d.cfg.Port)
	assert.Equal(t, DefaultSettle, d.cfg.Settle)
	assert.Equal(t, 10*time.Second, d.cfg.DialTimeout)
	assert.NotNil(t, d.cfg.HostKeyCallback)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
