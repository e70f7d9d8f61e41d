package goroutine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
	done chan struct{}
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
	l.mu.Unlock()
	close(l.done)
}

func TestSafeGoRecoversPanic(t *testing.T) {
	log := &recordingLogger{done: make(chan struct{})}
	rh := NewRecoveryHandler(log)

	rh.SafeGo(func() { panic("boom") })

	select {
	case <-log.done:
	case <-time.After(2 * time.Second):
		t.Fatal("panic не был перехвачен")
	}
	require.Len(t, log.msgs, 1)
	assert.Contains(t, log.msgs[0], "boom")
}

func TestSafeGoWithContextPassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := make(chan error, 1)
	SafeGoWithContext(ctx, func(ctx context.Context) {
		got <- ctx.Err()
	})

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("горутина не запустилась")
	}
}

func TestGroupWaitsForTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGroup(nil)

	stopped := make(chan struct{})
	g.Go(ctx, "worker", func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})

	assert.False(t, g.Wait(20*time.Millisecond))

	cancel()
	assert.True(t, g.Wait(2*time.Second))
	<-stopped
}

func TestGroupRecoversNamedPanic(t *testing.T) {
	log := &recordingLogger{done: make(chan struct{})}
	g := NewGroup(log)

	g.Go(context.Background(), "otp-sweeper", func(context.Context) { panic("boom") })

	require.True(t, g.Wait(2*time.Second))
	require.Len(t, log.msgs, 1)
	assert.Contains(t, log.msgs[0], "otp-sweeper")
}
