package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/domain"
)

func TestRelayDispatch(t *testing.T) {
	t.Run("process command end to end", func(t *testing.T) {
		r := New()

		res, err := r.Dispatch(context.Background(), domain.Command{
			Argv:      []string{"echo", "relay"},
			Transport: domain.TransportProcess,
			Timeout:   2 * time.Second,
		})
		require.NoError(t, err)
		assert.True(t, res.Completed)
		assert.Contains(t, res.Text, "relay")
	})

	t.Run("validation errors surface", func(t *testing.T) {
		r := New()

		_, err := r.Dispatch(context.Background(), domain.Command{
			Transport: domain.TransportProcess,
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "argv", verr.Field)
	})

	t.Run("deadline bounds a wedged command", func(t *testing.T) {
		r := New()

		start := time.Now()
		res, err := r.Dispatch(context.Background(), domain.Command{
			Argv:      []string{"sleep", "10"},
			Transport: domain.TransportProcess,
			Timeout:   300 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.False(t, res.Completed)
		assert.Less(t, time.Since(start), 3*time.Second)
	})
}
