package notification

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesOnlyRecipient(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	alice := hub.Subscribe("alice")
	defer alice.Close()
	bob := hub.Subscribe("bob")
	defer bob.Close()

	hub.Publish(Notification{ID: "n-1", UserID: "alice", Type: TypeMessage})

	select {
	case n := <-alice.C:
		assert.Equal(t, "n-1", n.ID)
	default:
		t.Fatal("expected a notification for alice")
	}
	select {
	case n := <-bob.C:
		t.Fatalf("bob received %s meant for alice", n.ID)
	default:
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe("alice")
	defer sub.Close()

	// overrun the buffer; Publish must never block
	for i := 0; i < cap(sub.C)+5; i++ {
		hub.Publish(Notification{ID: fmt.Sprintf("n-%d", i), UserID: "alice"})
	}
	assert.Len(t, sub.C, cap(sub.C))
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe("alice")
	sub.Close()
	sub.Close()

	// publish after close must not panic or deliver
	hub.Publish(Notification{ID: "n-1", UserID: "alice"})
	_, open := <-sub.C
	assert.False(t, open)
}

func TestHubCloseReleasesSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("alice")
	hub.Close()

	_, open := <-sub.C
	assert.False(t, open)

	// closing the subscription after the hub is gone is still safe
	sub.Close()

	late := hub.Subscribe("bob")
	_, open = <-late.C
	assert.False(t, open)
}

func TestFeedPrependKeepsNewestFirstAndCapped(t *testing.T) {
	feed := NewFeed(nil, 0)
	for i := 0; i < FeedCap+3; i++ {
		feed.Prepend(Notification{ID: fmt.Sprintf("n-%d", i)})
	}

	items := feed.Items()
	require.Len(t, items, FeedCap)
	assert.Equal(t, fmt.Sprintf("n-%d", FeedCap+2), items[0].ID)
	assert.Equal(t, "n-3", items[FeedCap-1].ID)
	assert.Equal(t, FeedCap, feed.Unread())
}

func TestFeedMarkRead(t *testing.T) {
	feed := NewFeed([]Notification{
		{ID: "n-2"},
		{ID: "n-1"},
	}, 2)

	assert.True(t, feed.MarkRead("n-1"))
	assert.Equal(t, 1, feed.Unread())

	// second call is a no-op
	assert.False(t, feed.MarkRead("n-1"))
	assert.Equal(t, 1, feed.Unread())

	assert.False(t, feed.MarkRead("unknown"))
}

func TestFeedMarkAllRead(t *testing.T) {
	feed := NewFeed([]Notification{
		{ID: "n-3"},
		{ID: "n-2"},
		{ID: "n-1", IsRead: true},
	}, 2)

	feed.MarkAllRead()
	assert.Equal(t, 0, feed.Unread())
	for _, n := range feed.Items() {
		assert.True(t, n.IsRead)
	}
}
