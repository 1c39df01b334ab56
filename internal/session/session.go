// Package session keeps per-device cart and order flow state in memory.
// All state of one device is guarded by that session's mutex.
package session

import (
	"sync"
	"time"

	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/service"
)

// Publisher pushes an event to a websocket room.
type Publisher interface {
	Publish(room, eventType string, payload any)
}

// Session is one device's state. Lock it around every use of Cart and Flow.
type Session struct {
	mu       sync.Mutex
	DeviceID string
	Cart     *cart.Cart
	Flow     *service.Flow

	notices  []string
	pub      Publisher
	lastSeen time.Time
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// CartChanged implements cart.Observer.
func (s *Session) CartChanged(sum cart.Summary) {
	if s.pub != nil {
		s.pub.Publish(enum.RoomDevicePrefix+s.DeviceID, enum.EventCartUpdated, sum)
	}
}

// ItemAdded implements cart.Observer.
func (s *Session) ItemAdded(name string) {
	msg := "🛒 " + name + " added to cart"
	s.notices = append(s.notices, msg)
	if s.pub != nil {
		s.pub.Publish(enum.RoomDevicePrefix+s.DeviceID, enum.EventCartNotice, map[string]string{"message": msg})
	}
}

// TakeNotices returns and clears the notices raised since the last call.
func (s *Session) TakeNotices() []string {
	n := s.notices
	s.notices = nil
	return n
}

// Store hands out one Session per device.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	pub      Publisher
	now      func() time.Time
}

func NewStore(pub Publisher) *Store {
	return &Store{sessions: make(map[string]*Session), pub: pub, now: time.Now}
}

// Get returns the device's session, creating it on first use.
func (st *Store) Get(deviceID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[deviceID]
	if !ok {
		s = &Session{DeviceID: deviceID, Flow: service.NewFlow(), pub: st.pub}
		s.Cart = cart.New(s)
		st.sessions[deviceID] = s
	}
	s.lastSeen = st.now()
	return s
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than maxIdle. A session with a
// payment in progress is kept.
func (st *Store) Sweep(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-maxIdle)
	removed := 0
	for id, s := range st.sessions {
		if !s.lastSeen.Before(cutoff) {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		pending := s.Flow.State == service.StateGatewayPending
		s.mu.Unlock()
		if pending {
			continue
		}
		delete(st.sessions, id)
		removed++
	}
	return removed
}
