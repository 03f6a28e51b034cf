package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTicketTTL = 15 * time.Minute

// tickets holds unverified users between a rejected sign-in and a resend
// request. The gateway has already signed them out, so the ticket is the only
// remaining handle on their credential.
type tickets struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]ticket
}

type ticket struct {
	user    *User
	expires time.Time
}

func newTickets(ttl time.Duration, now func() time.Time) *tickets {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	if now == nil {
		now = time.Now
	}
	return &tickets{ttl: ttl, now: now, pending: make(map[string]ticket)}
}

func (t *tickets) issue(user *User) string {
	id := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()
	t.pending[id] = ticket{user: user, expires: t.now().Add(t.ttl)}
	return id
}

// take returns the user for id, keeping the ticket valid for further resends.
func (t *tickets) take(id string) (*User, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()
	entry, ok := t.pending[id]
	if !ok {
		return nil, false
	}
	return entry.user, true
}

func (t *tickets) sweepLocked() {
	now := t.now()
	for id, entry := range t.pending {
		if !now.Before(entry.expires) {
			delete(t.pending, id)
		}
	}
}
