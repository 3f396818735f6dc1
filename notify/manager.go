package notify

import (
	"strconv"
	"sync"
	"time"
)

//Notification a dismissible user visible message
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	//Variant one of default, success, error, warning
	Variant   string    `json:"variant"`
	CreatedAt time.Time `json:"created_at"`
}

/*
Manager owns notification state for one application session: its own
id counter, the bounded active list and a dismissal timer per
notification. It replaces module level counters and timer maps with an
injected value whose lifetime ends at Stop.
*/
type Manager struct {
	mu      sync.Mutex
	seq     uint64
	active  []*Notification
	timers  map[string]*time.Timer
	limit   int
	ttl     time.Duration
	stopped bool
}

//NewManager create a manager keeping at most limit notifications,
//each auto dismissed after ttl, ttl zero disables auto dismissal
func NewManager(limit int, ttl time.Duration) *Manager {
	return &Manager{
		timers: make(map[string]*time.Timer),
		limit:  limit,
		ttl:    ttl,
	}
}

//Notify add a notification, the oldest one is evicted beyond the limit
func (m *Manager) Notify(title, description, variant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.seq++
	n := &Notification{
		ID:          strconv.FormatUint(m.seq, 10),
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   time.Now(),
	}
	m.active = append([]*Notification{n}, m.active...)
	for len(m.active) > m.limit {
		evicted := m.active[len(m.active)-1]
		m.active = m.active[:len(m.active)-1]
		m.clearTimer(evicted.ID)
	}
	if m.ttl > 0 {
		id := n.ID
		m.timers[id] = time.AfterFunc(m.ttl, func() {
			m.Dismiss(id)
		})
	}
}

//Dismiss remove a notification by id, unknown ids are ignored
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.active {
		if n.ID == id {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
	m.clearTimer(id)
}

//Active the current notifications, newest first
func (m *Manager) Active() []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Notification, len(m.active))
	copy(out, m.active)
	return out
}

//Stop cancel all dismissal timers, the manager accepts nothing afterwards
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.active = nil
}

func (m *Manager) clearTimer(id string) {
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
}
