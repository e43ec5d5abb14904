package auth

// Event identifies an auth state change.
type Event string

// Auth state change events.
const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// StateChange is delivered to subscribers. Session is nil for
// EventSignedOut.
type StateChange struct {
	Event   Event
	Session *Session
}

// Subscription receives state changes on C until Unsubscribe is called.
type Subscription struct {
	C <-chan StateChange

	ch     chan StateChange
	id     int
	client *Client
}

// Subscribe registers an observer. buffer sets the channel capacity;
// changes that do not fit are dropped for that subscriber.
func (c *Client) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan StateChange, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	sub := &Subscription{C: ch, ch: ch, id: c.nextID, client: c}
	c.subs[sub.id] = sub
	return sub
}

// Unsubscribe stops delivery and closes C. It is safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	c := s.client
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[s.id]; !ok {
		return
	}
	delete(c.subs, s.id)
	close(s.ch)
}

func (c *Client) emit(change StateChange) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		select {
		case sub.ch <- change:
		default:
			c.logger.Debug("subscriber buffer full, dropping state change", "event", change.Event)
		}
	}
}
