package notification

import (
	"sync"
)

// Hub fans inserted notifications out to per-user subscriptions. One hub per
// process; the pq listener is its only publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// Subscription is a single user's live feed. Close must be invoked on
// teardown to release the channel.
type Subscription struct {
	C      chan Notification
	hub    *Hub
	userID string
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe opens a feed filtered to one user's notifications.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		C:      make(chan Notification, 16),
		hub:    h,
		userID: userID,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		return sub
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// Publish delivers a notification to every subscription of its recipient.
// A subscriber that cannot keep up has the event dropped rather than
// blocking the listener goroutine.
func (h *Hub) Publish(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[n.UserID] {
		select {
		case sub.C <- n:
		default:
		}
	}
}

// Close releases all subscriptions. Further publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.subs {
		for sub := range subs {
			sub.once.Do(func() { close(sub.C) })
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
}

// Close detaches the subscription from the hub and closes its channel.
// Safe to call more than once and on all exit paths.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if subs, ok := s.hub.subs[s.userID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.hub.subs, s.userID)
		}
	}
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.C) })
}

// Feed is the bounded in-memory view backing a notification dropdown:
// newest first, capped at FeedCap entries, with an unread counter.
type Feed struct {
	mu     sync.Mutex
	items  []Notification
	unread int
}

func NewFeed(initial []Notification, unread int) *Feed {
	items := make([]Notification, len(initial))
	copy(items, initial)
	if len(items) > FeedCap {
		items = items[:FeedCap]
	}
	return &Feed{items: items, unread: unread}
}

// Prepend inserts a push-delivered notification at the head of the feed.
// Push delivery is assumed to arrive in creation order.
func (f *Feed) Prepend(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]Notification{n}, f.items...)
	if len(f.items) > FeedCap {
		f.items = f.items[:FeedCap]
	}
	if !n.IsRead {
		f.unread++
	}
}

// MarkRead flips one feed entry read and decrements the unread counter.
// Reports whether anything changed.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && !f.items[i].IsRead {
			f.items[i].IsRead = true
			if f.unread > 0 {
				f.unread--
			}
			return true
		}
	}
	return false
}

// MarkAllRead flips every feed entry read and zeroes the unread counter.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.unread = 0
}

// Items returns a copy of the feed, newest first.
func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Notification, len(f.items))
	copy(items, f.items)
	return items
}

func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}
