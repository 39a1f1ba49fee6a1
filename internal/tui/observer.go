package tui

import "github.com/mmcdole/moviebase/internal/domain"

// ChannelObserver adapts domain.CollectionObserver to a channel for Bubble Tea.
// When the reader falls behind the oldest queued event is dropped, so the
// newest state always gets through.
type ChannelObserver struct {
	ch chan domain.CollectionEvent
}

// NewChannelObserver creates a new channel-based observer. ch must be buffered.
func NewChannelObserver(ch chan domain.CollectionEvent) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnChange sends the event without blocking the list store
func (o *ChannelObserver) OnChange(event domain.CollectionEvent) {
	for {
		select {
		case o.ch <- event:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}
