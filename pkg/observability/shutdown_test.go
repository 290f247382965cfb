package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, 0)
	assert.Equal(t, 30*time.Second, sm.timeout)
}

func TestShutdownManager_ReverseOrder(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, time.Second)

	var order []string
	for _, name := range []string{"database", "redis", "http"} {
		name := name
		sm.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	sm.Register("nil", nil)

	require.NoError(t, sm.Shutdown())
	assert.Equal(t, []string{"http", "redis", "database"}, order)
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sm := NewShutdownManager(logger, time.Second)

	errDB := errors.New("close failed")
	ran := false
	sm.Register("database", func(context.Context) error { return errDB })
	sm.Register("http", func(context.Context) error { ran = true; return nil })

	err := sm.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, errDB)
	assert.Contains(t, err.Error(), "database")
	assert.True(t, ran)

	var sawStepError bool
	for _, e := range hook.AllEntries() {
		if e.Message == "shutdown step failed" {
			sawStepError = true
		}
	}
	assert.True(t, sawStepError)
}

func TestShutdownManager_Timeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, 20*time.Millisecond)

	sm.Register("never", func(context.Context) error { return errors.New("should be skipped") })
	sm.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := sm.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "never: skipped")
}

func TestShutdownManager_Idempotent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, time.Second)

	calls := 0
	sm.Register("once", func(context.Context) error { calls++; return nil })

	require.NoError(t, sm.Shutdown())
	require.NoError(t, sm.Shutdown())
	assert.Equal(t, 1, calls)
}
