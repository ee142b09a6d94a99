package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"pixmuse/internal/infra"
	"pixmuse/internal/infra/statusstore"
	"pixmuse/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errs.New("generation request not found")
	ErrHubClosed       = errs.New("notifier hub is closed")
)

const clientSendBuffer = 16

// Watcher is the firehose of status updates the hub fans out.
type Watcher interface {
	Watch(ctx context.Context) (<-chan statusstore.Event, error)
}

// Stats is the notifier health payload.
type Stats struct {
	TotalConnections         int `json:"totalConnections"`
	TotalSubscribedRequestID int `json:"totalSubscribedRequestIds"`
}

// Client is one push connection. A client can follow several request ids at
// once; serialized snapshots arrive on Send in publish order.
type Client struct {
	hub    *Hub
	userID uuid.UUID
	send   chan []byte

	mu       sync.Mutex
	requests map[uuid.UUID]struct{}
	closed   bool
}

// Hub fans status store events out to subscribed push clients. Updates
// published before a subscription are not replayed: Subscribe compensates
// by sending the current snapshot first, so the client never starts blind.
type Hub struct {
	store   statusstore.Store
	watcher Watcher
	log     *slog.Logger

	mu      sync.RWMutex
	subs    map[uuid.UUID]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(store statusstore.Store, watcher Watcher, log *slog.Logger) *Hub {
	return &Hub{
		store:   store,
		watcher: watcher,
		log:     log,
		subs:    make(map[uuid.UUID]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Start attaches the hub to the update feed. The passed context bounds the
// subscription handshake only.
func (h *Hub) Start(ctx context.Context) error {
	feedCtx, cancel := context.WithCancel(context.Background())
	events, err := h.watcher.Watch(feedCtx)
	if err != nil {
		cancel()
		return err
	}
	h.cancel = cancel
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)
		for ev := range events {
			h.dispatch(ev)
		}
	}()
	return nil
}

func (h *Hub) Stop(context.Context) error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
	return nil
}

// NewClient registers a push connection for the given user.
func (h *Hub) NewClient(userID uuid.UUID) (*Client, error) {
	c := &Client{
		hub:      h,
		userID:   userID,
		send:     make(chan []byte, clientSendBuffer),
		requests: make(map[uuid.UUID]struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.clients[c] = struct{}{}
	return c, nil
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		TotalConnections:         len(h.clients),
		TotalSubscribedRequestID: len(h.subs),
	}
}

func (h *Hub) dispatch(ev statusstore.Event) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.subs[ev.RequestID]))
	for c := range h.subs[ev.RequestID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	terminal := ev.Snapshot.Status.IsTerminal()
	for _, c := range targets {
		if !c.deliver(ev.Payload) {
			// a client that cannot keep up falls back to polling
			h.log.Warn("dropping slow push client", "request_id", ev.RequestID)
			c.Close()
			continue
		}
		if terminal {
			c.unsubscribeLocal(ev.RequestID)
			h.removeSub(ev.RequestID, c)
		}
	}
}

func (h *Hub) addSub(requestID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[requestID]
	if !ok {
		set = make(map[*Client]struct{})
		h.subs[requestID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) removeSub(requestID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[requestID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, requestID)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
}

// Send is the client's outbound snapshot stream. It closes when the client
// is dropped or the hub shuts down.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Subscribe follows one request id. The current snapshot is queued first so
// the stream is complete from the client's point of view; requests owned by
// another user report not found.
func (c *Client) Subscribe(ctx context.Context, requestID uuid.UUID) error {
	snap, err := c.hub.store.Get(ctx, requestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, ErrRequestNotFound)
		}
		return errs.Wrap(err, "failed to load snapshot for subscription")
	}
	if snap.UserID != c.userID {
		return ErrRequestNotFound
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return errs.Wrap(err, "failed to encode snapshot")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrHubClosed
	}
	alreadySubscribed := false
	if _, ok := c.requests[requestID]; ok {
		alreadySubscribed = true
	} else {
		c.requests[requestID] = struct{}{}
	}
	c.mu.Unlock()

	if !alreadySubscribed && !snap.Status.IsTerminal() {
		c.hub.addSub(requestID, c)
	}
	if !c.deliver(payload) {
		c.Close()
		return ErrHubClosed
	}
	return nil
}

func (c *Client) Unsubscribe(requestID uuid.UUID) {
	c.unsubscribeLocal(requestID)
	c.hub.removeSub(requestID, c)
}

func (c *Client) unsubscribeLocal(requestID uuid.UUID) {
	c.mu.Lock()
	delete(c.requests, requestID)
	c.mu.Unlock()
}

// Close detaches the client from the hub and closes its send channel.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.hub.removeClient(c)
	close(c.send)
}

// deliver queues a payload without blocking. Reports false when the client
// buffer is full or the client is closed.
func (c *Client) deliver(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}
