package handlers

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	throttleCooldownCapSeconds = 30
	throttlePruneAbove         = 1024
)

// keyThrottle slows down access key guessing per client address. Every wrong
// key sets a cooldown of min(30, 2^failures) seconds; a correct key clears it.
type keyThrottle struct {
	mu      sync.Mutex
	clients map[string]*throttleState
	now     func() time.Time
}

type throttleState struct {
	failCount     int
	cooldownUntil time.Time
}

func newKeyThrottle(now func() time.Time) *keyThrottle {
	return &keyThrottle{clients: make(map[string]*throttleState), now: now}
}

// wait reports how long client must wait before its next attempt, 0 if none.
func (t *keyThrottle) wait(client string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.clients[client]
	if !ok {
		return 0
	}
	if d := st.cooldownUntil.Sub(t.now()); d > 0 {
		return d
	}
	return 0
}

func (t *keyThrottle) failed(client string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if len(t.clients) > throttlePruneAbove {
		t.pruneLocked(now)
	}
	st, ok := t.clients[client]
	if !ok {
		st = &throttleState{}
		t.clients[client] = st
	}
	st.failCount++
	st.cooldownUntil = now.Add(time.Duration(cooldownSecondsForFailCount(st.failCount)) * time.Second)
}

func (t *keyThrottle) succeeded(client string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, client)
}

// pruneLocked drops clients idle for longer than the cooldown cap.
func (t *keyThrottle) pruneLocked(now time.Time) {
	for client, st := range t.clients {
		if now.Sub(st.cooldownUntil) > throttleCooldownCapSeconds*time.Second {
			delete(t.clients, client)
		}
	}
}

// cooldownSecondsForFailCount returns min(30, 2^failCount).
func cooldownSecondsForFailCount(failCount int) int {
	s := math.Pow(2, float64(failCount))
	if s > throttleCooldownCapSeconds {
		return throttleCooldownCapSeconds
	}
	return int(s)
}

// clientAddr is the remote IP without port. Forwarding headers are ignored.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
