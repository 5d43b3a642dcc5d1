package network

import (
	"sync"
	"sync/atomic"
)

// State captures the lifecycle state of the Engine: Stopped or Running.
type State uint32

const (
	//Stopped is the initial state of an Engine, and the state it returns to
	//after Stop.
	Stopped State = iota
	//Running is the state between Start and Stop.
	Running
)

// String ...
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// state tracks the Engine's lifecycle state and its spawned goroutines, so
// that Stop can deterministically await their termination instead of merely
// signaling and hoping.
type state struct {
	state State
	wg    sync.WaitGroup
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// goFunc starts a goroutine and adds it to the waitgroup.
func (b *state) goFunc(f func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		f()
	}()
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}
