package notifier

import (
	"github.com/cirruslabs/vmpower/internal/concurrentmap"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier wakes up everyone who's waiting for the task state to change.
//
// Notifications carry no payload, the waiters are expected
// to re-read whatever they're interested in from the store.
type Notifier struct {
	waiters *concurrentmap.ConcurrentMap[chan struct{}]
	logger  *zap.SugaredLogger
}

func NewNotifier(logger *zap.SugaredLogger) *Notifier {
	return &Notifier{
		waiters: concurrentmap.NewConcurrentMap[chan struct{}](),
		logger:  logger,
	}
}

// Register returns a channel that receives a value after
// each NotifyAll() call and a function to unregister it.
//
// Registering before inspecting the state guarantees that
// a change happening in-between won't be missed.
func (notifier *Notifier) Register() (chan struct{}, func()) {
	id := uuid.NewString()

	// A single buffered slot is enough, multiple notifications
	// that happen before the waiter wakes up are coalesced
	ch := make(chan struct{}, 1)

	notifier.waiters.Store(id, ch)

	return ch, func() {
		notifier.waiters.Delete(id)
	}
}

func (notifier *Notifier) NotifyAll() {
	notified := 0

	notifier.waiters.Range(func(_ string, ch chan struct{}) bool {
		select {
		case ch <- struct{}{}:
		default:
		}

		notified++

		return true
	})

	notifier.logger.Debugf("notified %d waiter(s)", notified)
}

func (notifier *Notifier) Waiters() int {
	return notifier.waiters.Len()
}
