package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviebase/internal/domain"
)

// Command factories for list store operations

const opTimeout = 30 * time.Second

// WaitForEventCmd blocks until the list store publishes its next change
func WaitForEventCmd(events <-chan domain.CollectionEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return CollectionChangedMsg{Event: event}
	}
}

// CreateListCmd creates a custom list
func CreateListCmd(store ListStore, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		list, err := store.CreateList(ctx, name)
		if err != nil {
			return ErrMsg{Err: err, Context: "creating list"}
		}
		return ListCreatedMsg{List: list}
	}
}

// DeleteListCmd deletes a custom list
func DeleteListCmd(store ListStore, list domain.List) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := store.DeleteList(ctx, list.ID); err != nil {
			return ErrMsg{Err: err, Context: "deleting list"}
		}
		return ListDeletedMsg{ListID: list.ID, Name: list.Name}
	}
}

// SetMembershipCmd makes item a member of exactly listIDs
func SetMembershipCmd(store ListStore, item domain.CatalogItem, listIDs []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := store.SetMembership(ctx, item, listIDs); err != nil {
			return ErrMsg{Err: err, Context: "updating lists"}
		}
		return MembershipSavedMsg{Title: item.Title, Count: len(listIDs)}
	}
}

// BulkDeleteCmd removes items from the source list only
func BulkDeleteCmd(store ListStore, source domain.List, items []domain.CatalogItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		removed, err := store.BulkDelete(ctx, source.ID, items)
		if err != nil {
			return ErrMsg{Err: err, Context: "removing items"}
		}
		return BulkDeletedMsg{ListName: source.Name, Removed: removed}
	}
}

// BulkMoveCmd moves items from source to dest
func BulkMoveCmd(store ListStore, sourceID string, dest domain.List, items []domain.CatalogItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		report, err := store.BulkMove(ctx, sourceID, dest.ID, items)
		if err != nil {
			return ErrMsg{Err: err, Context: "moving items"}
		}
		return BulkMovedMsg{DestName: dest.Name, Report: report}
	}
}

// TickMsg drives the pending-write spinner
type TickMsg time.Time

// TickCmd schedules the next spinner frame
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
