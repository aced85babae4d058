/*
Sleep/wakeup against a wait channel.

The caches block in exactly two situations: a Locked bit is set on the object
they need, or a free list is empty. A uniprocessor kernel handles both with
sleep(channel)/wakeup(channel) and interrupts disabled around the predicate
check. This package is the user-space substitution: the caller's mutex plays
the interrupt mask, and WaitChannel plays the scheduler channel.

The wakeup is a broadcast with no ordering guarantee; any waiter may win.
Waiters must re-check their predicate in a loop because a wakeup only means
"the condition may have changed". Waits are uninterruptible: there is no
cancellation and no timeout, matching the kernel convention the caches assume.
*/
package sched

import "sync"

// WaitChannel is a broadcast wakeup point.
// the zero value is not usable; use NewWaitChannel.
type WaitChannel struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewWaitChannel initializes a wait channel
func NewWaitChannel() *WaitChannel {
	return &WaitChannel{ch: make(chan struct{})}
}

// Wait arms the channel and returns it.
// the caller must call Wait while still holding the mutex that protects its
// predicate: a wakeup issued after Wait returns is never missed, even if the
// caller has not started receiving yet.
func (w *WaitChannel) Wait() <-chan struct{} {
	w.mu.Lock()
	ch := w.ch
	w.mu.Unlock()
	return ch
}

// Wakeup wakes every waiter armed before this call
func (w *WaitChannel) Wakeup() {
	w.mu.Lock()
	close(w.ch)
	w.ch = make(chan struct{})
	w.mu.Unlock()
}

// Sleep blocks until the next wakeup.
// mu must be held on entry; it is released while blocked and re-acquired
// before return. The caller re-checks its predicate afterwards.
func (w *WaitChannel) Sleep(mu *sync.Mutex) {
	ch := w.Wait()
	mu.Unlock()
	<-ch
	mu.Lock()
}
