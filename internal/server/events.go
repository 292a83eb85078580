package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	eventBuffer    = 16
	eventHeartbeat = 30 * time.Second
)

// subscriber is one event stream connection.
type subscriber struct {
	ch       chan string
	document string
}

// broadcaster fans document change notifications out to event streams.
type broadcaster struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[*subscriber]struct{})}
}

func (b *broadcaster) register(document string) *subscriber {
	s := &subscriber{
		ch:       make(chan string, eventBuffer),
		document: document,
	}
	b.mu.Lock()
	if b.closed {
		close(s.ch)
	} else {
		b.subs[s] = struct{}{}
	}
	b.mu.Unlock()
	return s
}

func (b *broadcaster) unregister(s *subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
	b.mu.Unlock()
}

// closeAll ends every open stream and refuses new ones.
func (b *broadcaster) closeAll() {
	b.mu.Lock()
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
	b.mu.Unlock()
}

// broadcast sends data to every stream of document. Slow streams miss
// messages instead of blocking the editor.
func (b *broadcaster) broadcast(document, data string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if s.document != document {
			continue
		}
		select {
		case s.ch <- data:
		default:
		}
	}
}

// count returns the number of streams open for document.
func (b *broadcaster) count(document string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for s := range b.subs {
		if s.document == document {
			n++
		}
	}
	return n
}

// serve streams the events of document until the client goes away.
func (b *broadcaster) serve(w http.ResponseWriter, r *http.Request, document string, initial string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s := b.register(document)
	defer b.unregister(s)

	if initial != "" {
		fmt.Fprintf(w, "data: %s\n\n", initial)
	}
	flusher.Flush()

	ticker := time.NewTicker(eventHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-s.ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
