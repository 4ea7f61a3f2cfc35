package wallet

import (
	"context"
	"sync"

	apperrors "bundlehub/internal/errors"
)

// UserLocker serialises balance-affecting work per user inside this process.
// It is held across the delivery call and the cache write that follows a
// commit, and released before events and notifications go out.
type UserLocker struct {
	mu    sync.Mutex
	locks map[uint]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func NewUserLocker() *UserLocker {
	return &UserLocker{locks: make(map[uint]*userLock)}
}

// Lock blocks until the user's lock is free or ctx is done, in which case it
// returns ErrWalletBusy wrapping ctx.Err(). The returned func releases the
// lock and must be called exactly once.
func (l *UserLocker) Lock(ctx context.Context, userID uint) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, apperrors.Wrap(apperrors.ErrWalletBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.ch
			l.release(userID, ul)
		})
	}, nil
}

func (l *UserLocker) release(userID uint, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}
