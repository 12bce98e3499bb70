package notifier_test

import (
	"sync"
	"testing"
	"time"

	"github.com/cirruslabs/vmpower/internal/endpoint/notifier"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifier(t *testing.T) {
	notifier := notifier.NewNotifier(zap.NewNop().Sugar())

	firstCh, firstCancel := notifier.Register()
	defer firstCancel()

	secondCh, secondCancel := notifier.Register()
	defer secondCancel()

	var wg sync.WaitGroup

	wg.Go(func() {
		notifier.NotifyAll()

		time.Sleep(100 * time.Millisecond)

		notifier.NotifyAll()
	})

	for range 2 {
		<-firstCh
		<-secondCh
	}

	wg.Wait()
}

func TestNotifierCoalesces(t *testing.T) {
	notifier := notifier.NewNotifier(zap.NewNop().Sugar())

	ch, cancel := notifier.Register()

	// Does not block even though nobody reads the channel
	for range 10 {
		notifier.NotifyAll()
	}

	require.Len(t, ch, 1)

	cancel()
	require.Zero(t, notifier.Waiters())

	// Unregistered channels are left alone
	<-ch
	notifier.NotifyAll()
	require.Empty(t, ch)
}
