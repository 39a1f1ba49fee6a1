package domain

// StoreState is the lifecycle state of a list store
type StoreState int

const (
	StateLoading StoreState = iota
	StateReady
)

func (s StoreState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// CollectionEvent describes a change to the list store's read model
type CollectionEvent struct {
	Actor    Actor
	State    StoreState
	Snapshot ListCollection // Deep copy, safe to keep
	Pending  bool           // Asynchronous writes not yet settled
	Err      error          // Non-fatal warning (failed background write, degraded load)
}

// CollectionObserver receives read-model updates from a list store
type CollectionObserver interface {
	OnChange(event CollectionEvent)
}

// NoOpObserver discards updates (for tests/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnChange(CollectionEvent) {}
