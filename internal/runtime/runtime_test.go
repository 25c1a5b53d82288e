package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tablerecover/tablerecover/internal/config"
)

var errBoom = errors.New("boom")

func TestControllerAcquireRelease(t *testing.T) {
	limits := config.Default().Limits
	limits.MaxConcurrentSheets = 1
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireSheet(context.Background()))
	controller.ReleaseSheet()
}

func TestGuardAcquiresAndReleasesAroundCall(t *testing.T) {
	limits := config.Default().Limits
	limits.MaxConcurrentSheets = 1
	controller := NewController(limits)

	var calls int
	guarded := controller.Guard(func(ctx context.Context) (int, error) {
		calls++
		return 3, nil
	})

	count, err := guarded(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, 1, calls)

	// Slot was released, so a second call must also succeed without blocking.
	count, err = guarded(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestGuardPropagatesHandlerError(t *testing.T) {
	limits := config.Default().Limits
	controller := NewController(limits)

	guarded := controller.Guard(func(ctx context.Context) (int, error) {
		return 0, errBoom
	})

	_, err := guarded(context.Background())
	require.ErrorIs(t, err, errBoom)
}
