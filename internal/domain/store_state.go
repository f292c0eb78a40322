package domain

// StoreState is the lifecycle of the persistence handle.
//
//	Uninitialized -> Connected <-> Degraded -> Closed
type StoreState string

const (
	StoreUninitialized StoreState = "uninitialized"
	StoreConnected     StoreState = "connected"
	StoreDegraded      StoreState = "degraded"
	StoreClosed        StoreState = "closed"
)

// CanWrite reports whether writes are attempted in this state.
func (s StoreState) CanWrite() bool {
	return s == StoreConnected
}

// CanRead reports whether reads are attempted in this state.
// A degraded store is still read from.
func (s StoreState) CanRead() bool {
	return s == StoreConnected || s == StoreDegraded
}

// OnOpened is the state after schema initialization finished.
func (s StoreState) OnOpened(err error) StoreState {
	if s != StoreUninitialized {
		return s
	}
	if err != nil {
		return StoreDegraded
	}
	return StoreConnected
}

// OnFailure is the state after an operation failed.
func (s StoreState) OnFailure() StoreState {
	if s == StoreConnected {
		return StoreDegraded
	}
	return s
}

// OnRecovered is the state after a successful health probe.
func (s StoreState) OnRecovered() StoreState {
	if s == StoreDegraded {
		return StoreConnected
	}
	return s
}

// OnClose is the terminal transition.
func (s StoreState) OnClose() StoreState {
	return StoreClosed
}
