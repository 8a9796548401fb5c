package httpserver

import "time"

func (v *PageView) SetClock(now func() time.Time) { v.now = now }

func (r *SessionRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
