package tui

import (
	"github.com/mmcdole/moviebase/internal/domain"
)

// Message types for the TUI

// ErrMsg represents a failed operation
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CollectionChangedMsg carries a read-model update from the list store
type CollectionChangedMsg struct {
	Event domain.CollectionEvent
}

// ListCreatedMsg signals that a list was created and persisted
type ListCreatedMsg struct {
	List domain.List
}

// ListDeletedMsg signals that a list was deleted
type ListDeletedMsg struct {
	ListID string
	Name   string
}

// MembershipSavedMsg signals that an item's lists were reassigned
type MembershipSavedMsg struct {
	Title string
	Count int // Lists the item now belongs to
}

// BulkDeletedMsg signals the end of a bulk removal
type BulkDeletedMsg struct {
	ListName string
	Removed  int
}

// BulkMovedMsg signals the end of a bulk move
type BulkMovedMsg struct {
	DestName string
	Report   domain.MoveReport
}
