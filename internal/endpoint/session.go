package endpoint

import (
	"sync"
	"time"

	"github.com/cirruslabs/vmpower/internal/endpoint/collector"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

type session struct {
	collector *collector.Collector

	mtx         sync.Mutex
	info        v1.UserSession
	activePolls int
}

func (session *session) Info() v1.UserSession {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	return session.info
}

func (session *session) touch() {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	session.info.LastActiveTime = time.Now()
}

// beginPoll marks the session as busy for the duration of a long poll,
// which may well outlast the idle timeout.
func (session *session) beginPoll() {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	session.activePolls++
}

func (session *session) endPoll() {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	session.activePolls--
	session.info.LastActiveTime = time.Now()
}

func (session *session) idleFor() time.Duration {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	if session.activePolls > 0 {
		return 0
	}

	return time.Since(session.info.LastActiveTime)
}
