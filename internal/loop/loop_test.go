package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func start(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestTasksRunInOrder(t *testing.T) {
	l, _ := start(t)

	var got []int
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestCallWaits(t *testing.T) {
	l, _ := start(t)

	ran := false
	require.NoError(t, l.Call(context.Background(), func() {
		time.Sleep(10 * time.Millisecond)
		ran = true
	}))
	assert.True(t, ran)
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l, _ := start(t)

	require.NoError(t, l.Post(func() { panic("boom") }))
	ran := false
	require.NoError(t, l.Call(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestPostAfterStop(t *testing.T) {
	l, cancel := start(t)
	cancel()
	<-l.Done()

	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}

func TestBackgroundWorkPostsBack(t *testing.T) {
	l, _ := start(t)

	result := make(chan string, 1)
	state := "awaiting"
	go func() {
		_ = l.Post(func() {
			state = "idle"
			result <- state
		})
	}()

	select {
	case got := <-result:
		assert.Equal(t, "idle", got)
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}
