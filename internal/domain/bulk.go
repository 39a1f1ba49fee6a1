package domain

// ImportReport summarizes a bulk import into the default watchlist
type ImportReport struct {
	Added   int
	Skipped int // Already present, or repeated within the batch
	Failed  int // Not persisted; the additions were reverted
}

// MoveStatus is the per-item outcome of a bulk move
type MoveStatus string

const (
	// MoveMoved: added to the destination and removed from the source
	MoveMoved MoveStatus = "moved"
	// MoveSkippedAdd: already at the destination, only removed from the source
	MoveSkippedAdd MoveStatus = "skipped-add"
	// MoveDuplicated: added to the destination but the source removal failed
	MoveDuplicated MoveStatus = "duplicated"
	// MoveFailed: the destination add failed, the item was not touched
	MoveFailed MoveStatus = "failed"
)

// MoveResult is the outcome for one item of a bulk move
type MoveResult struct {
	Key    ItemKey
	Title  string
	Status MoveStatus
	Err    error
}

// MoveReport is the per-item report of a bulk move
type MoveReport struct {
	Results []MoveResult
}

// Count returns how many results have status
func (r MoveReport) Count(status MoveStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// OK reports whether every item left the source
func (r MoveReport) OK() bool {
	for _, res := range r.Results {
		if res.Status == MoveFailed || res.Status == MoveDuplicated {
			return false
		}
	}
	return true
}
