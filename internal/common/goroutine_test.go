package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestCatchPanic_ConvertsPanic(t *testing.T) {
	err := CatchPanic(arbor.NewLogger(), "test", func() error {
		panic("boom")
	})

	require.Error(t, err)
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Equal(t, "panic: boom", err.Error())
}

func TestCatchPanic_PassesThroughErrors(t *testing.T) {
	sentinel := errors.New("plain failure")
	err := CatchPanic(nil, "test", func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	assert.NoError(t, CatchPanic(nil, "test", func() error { return nil }))
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo(arbor.NewLogger(), "panicky", func() {
		defer close(done)
		panic("goroutine boom")
	})
	<-done
	assert.GreaterOrEqual(t, GetGoroutineCount(), int64(1))
}
