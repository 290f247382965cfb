package observability

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverPanic(t *testing.T) {
	logger, hook := test.NewNullLogger()

	func() {
		defer RecoverPanic(logger, "job")
		panic("boom")
	}()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "PANIC recovered", entry.Message)
	assert.Equal(t, "boom", entry.Data["panic"])
	assert.Equal(t, "job", entry.Data["context"])

	hook.Reset()
	func() {
		defer RecoverPanic(logger, "quiet")
	}()
	assert.Empty(t, hook.AllEntries())
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("bad"), "panic: bad")
}
