package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("accepts device and baud", func(t *testing.T) {
		assert.NoError(t, Config{Device: "/dev/ttyUSB0", Baud: 115200}.Validate())
	})

	t.Run("requires device", func(t *testing.T) {
		assert.Error(t, Config{Baud: 115200}.Validate())
	})

	t.Run("requires positive baud", func(t *testing.T) {
		assert.Error(t, Config{Device: "/dev/ttyUSB0"}.Validate())
		assert.Error(t, Config{Device: "/dev/ttyUSB0", Baud: -9600}.Validate())
	})
}

func TestNew(t *testing.T) {
	d, err := New(Config{Device: "/dev/ttyUSB0", Baud: 9600})
	assert.NoError(t, err)
	assert.Equal(t, DefaultPoll, d.cfg.Poll)

	_, err = New(Config{})
	assert.Error(t, err)
}
