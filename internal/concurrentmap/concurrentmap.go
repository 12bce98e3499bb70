package concurrentmap

import (
	"sync"
)

type ConcurrentMap[T any] struct {
	nonConcurrentMap map[string]T
	mtx              sync.Mutex
}

func NewConcurrentMap[T any]() *ConcurrentMap[T] {
	return &ConcurrentMap[T]{
		nonConcurrentMap: map[string]T{},
	}
}

func (cmap *ConcurrentMap[T]) Load(key string) (T, bool) {
	cmap.mtx.Lock()
	defer cmap.mtx.Unlock()

	result, ok := cmap.nonConcurrentMap[key]

	return result, ok
}

func (cmap *ConcurrentMap[T]) Store(id string, value T) {
	cmap.mtx.Lock()
	defer cmap.mtx.Unlock()

	cmap.nonConcurrentMap[id] = value
}

func (cmap *ConcurrentMap[T]) Delete(key string) {
	cmap.mtx.Lock()
	defer cmap.mtx.Unlock()

	delete(cmap.nonConcurrentMap, key)
}

func (cmap *ConcurrentMap[T]) Len() int {
	cmap.mtx.Lock()
	defer cmap.mtx.Unlock()

	return len(cmap.nonConcurrentMap)
}

// Range calls f for each key and value present in the map,
// stopping early if f returns false.
//
// The map is locked for the duration of the call, so f
// must not access the map itself.
func (cmap *ConcurrentMap[T]) Range(f func(key string, value T) bool) {
	cmap.mtx.Lock()
	defer cmap.mtx.Unlock()

	for key, value := range cmap.nonConcurrentMap {
		if !f(key, value) {
			return
		}
	}
}
