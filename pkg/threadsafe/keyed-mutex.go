package threadsafe

import (
	"context"
	"sync"
)

// KeyedMutex serialises holders of the same key; different keys never block
// each other. Entries are dropped once nobody holds or waits for them.
type KeyedMutex[T comparable] struct {
	locks map[T]*keyedLock
	mux   *sync.Mutex
}

type keyedLock struct {
	slot chan struct{}
	refs int
}

func NewKeyedMutex[T comparable]() *KeyedMutex[T] {
	return &KeyedMutex[T]{
		locks: make(map[T]*keyedLock),
		mux:   &sync.Mutex{},
	}
}

// Lock waits for key until ctx is done. The returned unlock may be called more than once.
func (k *KeyedMutex[T]) Lock(ctx context.Context, key T) (func(), error) {
	k.mux.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{slot: make(chan struct{}, 1)}
		k.locks[key] = lock
	}
	lock.refs++
	k.mux.Unlock()

	select {
	case lock.slot <- struct{}{}:
	case <-ctx.Done():
		k.release(key, lock)
		return nil, ctx.Err()
	}

	once := &sync.Once{}
	return func() {
		once.Do(func() {
			<-lock.slot
			k.release(key, lock)
		})
	}, nil
}

func (k *KeyedMutex[T]) Len() int {
	k.mux.Lock()
	defer k.mux.Unlock()
	return len(k.locks)
}

func (k *KeyedMutex[T]) release(key T, lock *keyedLock) {
	k.mux.Lock()
	defer k.mux.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(k.locks, key)
	}
}
