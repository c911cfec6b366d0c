package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseReplaySize is the number of recent events kept for Last-Event-ID replay.
	sseReplaySize = 512

	sseKeepaliveInterval = 15 * time.Second
	sseClientBuffer      = 64
)

// sseEvent is one broadcast event, numbered in broadcast order.
type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// sseHub fans events out to connected stream clients and remembers the most
// recent ones so a reconnecting client can resume from its Last-Event-ID.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}

	replayMu sync.RWMutex
	seq      uint64     // guarded by replayMu
	replay   []sseEvent // ring of at most sseReplaySize entries
	next     int
}

type sseClient struct {
	topics []string // NATS-style subject patterns; empty matches everything
	ch     chan *sseEvent

	// lastSent is the highest event ID written to this client. Only the
	// stream handler goroutine touches it.
	lastSent uint64
}

func newSSEHub() *sseHub {
	return &sseHub{
		clients: make(map[*sseClient]struct{}),
		replay:  make([]sseEvent, 0, sseReplaySize),
	}
}

// broadcast numbers an event, stores it for replay, and hands it to every
// matching client. Slow clients miss events rather than block the caller.
func (h *sseHub) broadcast(topic string, payload []byte) {
	h.replayMu.Lock()
	h.seq++
	evt := sseEvent{ID: h.seq, Topic: topic, Data: payload}
	if len(h.replay) < sseReplaySize {
		h.replay = append(h.replay, evt)
	} else {
		h.replay[h.next] = evt
	}
	h.next = (h.next + 1) % sseReplaySize
	h.replayMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matches(topic) {
			continue
		}
		select {
		case c.ch <- &evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// resume returns the remembered events after lastID that match the client's
// topics and marks them sent. The client is already subscribed, so an event
// broadcast meanwhile can also be waiting in its channel; fresh drops it.
func (c *sseClient) resume(h *sseHub, lastID uint64) []sseEvent {
	var out []sseEvent
	for _, evt := range h.since(lastID) {
		if c.matches(evt.Topic) {
			out = append(out, evt)
		}
	}
	c.lastSent = max(c.lastSent, lastID)
	if len(out) > 0 {
		c.lastSent = max(c.lastSent, out[len(out)-1].ID)
	}
	return out
}

// fresh reports whether evt has not been written to the client yet, and
// records it as sent when it has not.
func (c *sseClient) fresh(evt *sseEvent) bool {
	if evt.ID <= c.lastSent {
		return false
	}
	c.lastSent = evt.ID
	return true
}

// since returns the remembered events numbered after lastID, oldest first.
func (h *sseHub) since(lastID uint64) []sseEvent {
	h.replayMu.RLock()
	defer h.replayMu.RUnlock()

	var out []sseEvent
	n := len(h.replay)
	start := 0
	if n == sseReplaySize {
		start = h.next
	}
	for i := range n {
		evt := h.replay[(start+i)%n]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

func (c *sseClient) matches(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchSubject(p, topic) {
			return true
		}
	}
	return false
}

// matchSubject matches a dot-separated topic against a NATS-style pattern:
// "*" matches one token and a trailing ">" matches one or more tokens.
func matchSubject(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pp := strings.Split(pattern, ".")
	tp := strings.Split(topic, ".")
	for i, tok := range pp {
		if tok == ">" {
			return i < len(tp)
		}
		if i >= len(tp) || (tok != "*" && tok != tp[i]) {
			return false
		}
	}
	return len(pp) == len(tp)
}

// handleEventStream handles GET /v1/events/stream?topics=a,b as server-sent events.
func (s *DatasetServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}

	client := s.sseHub.subscribe(topics)
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if lastID, err := strconv.ParseUint(v, 10, 64); err == nil {
			for _, evt := range client.resume(s.sseHub, lastID) {
				writeSSEEvent(w, &evt)
			}
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			if !client.fresh(evt) {
				continue
			}
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
